// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franchisehub/supply-backend/internal/metrics"
	"github.com/franchisehub/supply-backend/internal/models"
)

// Channel senders are satisfied by internal/integrations; tests substitute
// fakes. A disabled sender is skipped silently, a failing one produces a
// warning.
type EmailSender interface {
	Enabled() bool
	Send(to, subject, body string) error
	AdminList() []string
	WarehouseList() []string
}

type PushSender interface {
	Enabled() bool
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type WhatsAppSender interface {
	Enabled() bool
	Send(ctx context.Context, phone, text string) error
	AdminNumbers() []string
}

// NotificationDispatcher fans an order lifecycle event out to in-app rows,
// email, push and WhatsApp. Channels are fully independent: one failing
// channel never blocks another, and no failure rolls back the order
// transition that triggered the dispatch.
type NotificationDispatcher struct {
	db       *gorm.DB
	email    EmailSender
	push     PushSender
	whatsapp WhatsAppSender
}

// DispatchResult summarizes one fan-out for observability. Warnings carry
// the soft-degradation detail surfaced on the API envelope.
type DispatchResult struct {
	InAppCreated int      `json:"in_app_created"`
	InAppSkipped int      `json:"in_app_skipped"`
	Warnings     []string `json:"warnings,omitempty"`
}

func (r *DispatchResult) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func NewNotificationDispatcher(db *gorm.DB, email EmailSender, push PushSender, whatsapp WhatsAppSender) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:       db,
		email:    email,
		push:     push,
		whatsapp: whatsapp,
	}
}

// StaffRolesFor maps a new order status onto the staff roles that get an
// in-app notification about it.
func StaffRolesFor(status models.OrderStatus) []models.UserRole {
	switch status {
	case models.OrderStatusPending:
		return []models.UserRole{models.UserRoleAdmin}
	case models.OrderStatusApproved:
		return []models.UserRole{models.UserRoleWarehouse}
	case models.OrderStatusRejected, models.OrderStatusCancelled:
		return nil
	case models.OrderStatusPacked, models.OrderStatusShipped, models.OrderStatusDelivered:
		return []models.UserRole{models.UserRoleAdmin}
	default:
		return []models.UserRole{models.UserRoleAdmin, models.UserRoleWarehouse}
	}
}

// Dispatch delivers all notifications for an order event. A nil previous
// status marks a brand-new order. Same-status events produce nothing.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, order *models.Order, previous *models.OrderStatus) *DispatchResult {
	result := &DispatchResult{}

	isNew := previous == nil
	if !isNew && *previous == order.Status {
		return result
	}

	var owner models.User
	if err := d.db.Preload("Profile").First(&owner, "id = ?", order.UserID).Error; err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to load order owner for dispatch")
		result.warnf("notifications skipped: order owner could not be loaded")
		return result
	}

	if isNew {
		// New order: every admin and warehouse user gets a pending row.
		d.createStaffRows(order, []models.UserRole{models.UserRoleAdmin, models.UserRoleWarehouse}, result)
	} else {
		d.createInApp(order, owner.ID, result)
		d.createStaffRows(order, StaffRolesFor(order.Status), result)
	}

	d.sendChannels(ctx, order, &owner, isNew, result)
	return result
}

// createInApp inserts one notification row, relying on the unique index on
// (user_id, order_id, status): a conflicting insert affects zero rows and
// counts as deduplicated rather than failed.
func (d *NotificationDispatcher) createInApp(order *models.Order, userID uuid.UUID, result *DispatchResult) {
	notification := models.OrderNotification{
		UserID:  userID,
		OrderID: order.ID,
		Status:  order.Status,
	}

	res := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "order_id"}, {Name: "status"}},
		DoNothing: true,
	}).Create(&notification)

	if res.Error != nil {
		logrus.WithError(res.Error).WithFields(logrus.Fields{
			"order_id": order.ID,
			"user_id":  userID,
			"status":   order.Status,
		}).Error("Failed to create in-app notification")
		result.warnf("in-app notification for %s could not be stored", userID)
		metrics.NotificationsSent.WithLabelValues("in_app", "error").Inc()
		return
	}

	if res.RowsAffected == 0 {
		result.InAppSkipped++
		metrics.NotificationsSent.WithLabelValues("in_app", "deduplicated").Inc()
		return
	}

	result.InAppCreated++
	metrics.NotificationsSent.WithLabelValues("in_app", "sent").Inc()
}

func (d *NotificationDispatcher) createStaffRows(order *models.Order, roles []models.UserRole, result *DispatchResult) {
	if len(roles) == 0 {
		return
	}

	var staff []models.User
	if err := d.db.Where("role IN ? AND status = ?", roles, models.UserStatusActive).
		Find(&staff).Error; err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to load staff users for dispatch")
		result.warnf("staff notifications could not be delivered")
		return
	}

	for _, user := range staff {
		d.createInApp(order, user.ID, result)
	}
}

// sendChannels attempts push, email and WhatsApp delivery. It is free of
// database writes so it can be exercised with fake senders. Every attempt
// is independent; failures only append warnings.
func (d *NotificationDispatcher) sendChannels(ctx context.Context, order *models.Order, owner *models.User, isNew bool, result *DispatchResult) {
	d.sendPush(ctx, order, owner, isNew, result)
	d.sendEmails(order, owner, isNew, result)
	d.sendWhatsApp(ctx, order, owner, isNew, result)
}

func (d *NotificationDispatcher) sendPush(ctx context.Context, order *models.Order, owner *models.User, isNew bool, result *DispatchResult) {
	if d.push == nil || !d.push.Enabled() {
		return
	}
	if owner.FCMToken == nil || *owner.FCMToken == "" {
		return
	}

	title := "Order update"
	body := fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status)
	if isNew {
		title = "Order received"
		body = fmt.Sprintf("Order %s has been received and is pending approval", order.OrderNumber)
	}

	data := map[string]string{
		"order_id":     order.ID.String(),
		"status":       string(order.Status),
		"click_action": "ORDER_DETAIL",
	}

	if err := d.push.Send(ctx, *owner.FCMToken, title, body, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":  order.ID,
			"channel":   "push",
			"recipient": owner.ID,
		}).Warn("Push notification failed")
		result.warnf("push notification could not be delivered")
		metrics.NotificationsSent.WithLabelValues("push", "error").Inc()
		return
	}
	metrics.NotificationsSent.WithLabelValues("push", "sent").Inc()
}

func (d *NotificationDispatcher) sendEmails(order *models.Order, owner *models.User, isNew bool, result *DispatchResult) {
	if d.email == nil || !d.email.Enabled() {
		return
	}

	company := ""
	if owner.Profile != nil {
		company = owner.Profile.CompanyName
	}
	payload := orderMessagePayload{
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		CompanyName: company,
		Username:    owner.Username,
		TotalAmount: order.TotalAmount,
	}

	if isNew {
		d.sendEmail(order, owner.Email, kindOrderConfirmation, payload, result)
		for _, to := range d.email.AdminList() {
			d.sendEmail(order, to, kindNewOrderAdmin, payload, result)
		}
		for _, to := range d.email.WarehouseList() {
			d.sendEmail(order, to, kindNewOrderWarehouse, payload, result)
		}
		return
	}

	d.sendEmail(order, owner.Email, kindStatusChanged, payload, result)
}

func (d *NotificationDispatcher) sendEmail(order *models.Order, to string, kind notificationKind, payload orderMessagePayload, result *DispatchResult) {
	subject, body, err := renderEmail(kind, payload)
	if err == nil {
		err = d.email.Send(to, subject, body)
	}
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":  order.ID,
			"channel":   "email",
			"recipient": to,
		}).Warn("Email notification failed")
		result.warnf("email to %s could not be delivered", to)
		metrics.NotificationsSent.WithLabelValues("email", "error").Inc()
		return
	}
	metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
}

func (d *NotificationDispatcher) sendWhatsApp(ctx context.Context, order *models.Order, owner *models.User, isNew bool, result *DispatchResult) {
	if d.whatsapp == nil || !d.whatsapp.Enabled() || !isNew {
		return
	}

	adminText := fmt.Sprintf("New order %s from %s for $%.2f", order.OrderNumber, owner.Username, order.TotalAmount)
	for _, number := range d.whatsapp.AdminNumbers() {
		d.sendWhatsAppTo(ctx, order, number, adminText, result)
	}

	if owner.Phone != "" {
		confirmation := fmt.Sprintf("Thanks %s, order %s for $%.2f was received and is pending approval.",
			owner.Username, order.OrderNumber, order.TotalAmount)
		d.sendWhatsAppTo(ctx, order, owner.Phone, confirmation, result)
	}
}

func (d *NotificationDispatcher) sendWhatsAppTo(ctx context.Context, order *models.Order, phone, text string, result *DispatchResult) {
	if err := d.whatsapp.Send(ctx, phone, text); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"order_id":  order.ID,
			"channel":   "whatsapp",
			"recipient": phone,
		}).Warn("WhatsApp notification failed")
		result.warnf("whatsapp message to %s could not be delivered", phone)
		metrics.NotificationsSent.WithLabelValues("whatsapp", "error").Inc()
		return
	}
	metrics.NotificationsSent.WithLabelValues("whatsapp", "sent").Inc()
}

// In-app notification queries for the franchisee app.

func (d *NotificationDispatcher) ListForUser(userID uuid.UUID, unreadOnly bool) ([]models.OrderNotification, error) {
	query := d.db.Where("user_id = ?", userID).Order("created_at DESC").Preload("Order")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.OrderNotification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (d *NotificationDispatcher) MarkAsRead(userID, notificationID uuid.UUID) error {
	res := d.db.Model(&models.OrderNotification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

func (d *NotificationDispatcher) Delete(userID, notificationID uuid.UUID) error {
	res := d.db.Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.OrderNotification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

// Notification kinds form a tagged union: each kind selects a template and
// the payload carries everything the template may reference.

type notificationKind string

const (
	kindNewOrderAdmin     notificationKind = "new_order_admin"
	kindNewOrderWarehouse notificationKind = "new_order_warehouse"
	kindStatusChanged     notificationKind = "status_changed"
	kindOrderConfirmation notificationKind = "order_confirmation"
)

type orderMessagePayload struct {
	OrderNumber string
	Status      string
	CompanyName string
	Username    string
	TotalAmount float64
}

type emailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[notificationKind]emailTemplate{
	kindOrderConfirmation: {
		Subject: "Order Confirmation - {{.OrderNumber}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Order received!</h2>
	<p>Hello {{.Username}},</p>
	<p>Your order <strong>{{.OrderNumber}}</strong> totaling ${{printf "%.2f" .TotalAmount}} has been received and is pending approval.</p>
	<p>We will notify you as it moves through fulfillment.</p>
	<p>Best regards,<br>Franchise Supply Team</p>
</body>
</html>`,
	},
	kindStatusChanged: {
		Subject: "Order {{.OrderNumber}} - {{.Status}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Order update</h2>
	<p>Hello {{.Username}},</p>
	<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
	<p>Best regards,<br>Franchise Supply Team</p>
</body>
</html>`,
	},
	kindNewOrderAdmin: {
		Subject: "New Order {{.OrderNumber}} awaiting approval",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>New order</h2>
	<p>{{if .CompanyName}}{{.CompanyName}}{{else}}{{.Username}}{{end}} placed order <strong>{{.OrderNumber}}</strong> for ${{printf "%.2f" .TotalAmount}}.</p>
	<p>The order is pending approval.</p>
</body>
</html>`,
	},
	kindNewOrderWarehouse: {
		Subject: "New Order {{.OrderNumber}} incoming",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Heads up</h2>
	<p>Order <strong>{{.OrderNumber}}</strong> was placed by {{if .CompanyName}}{{.CompanyName}}{{else}}{{.Username}}{{end}} and will need packing once approved.</p>
</body>
</html>`,
	},
}

func renderEmail(kind notificationKind, payload orderMessagePayload) (string, string, error) {
	tpl, ok := emailTemplates[kind]
	if !ok {
		return "", "", errors.New("unknown notification kind: " + string(kind))
	}

	subject, err := renderTemplate(tpl.Subject, payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	body, err := renderTemplate(tpl.Body, payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return subject, body, nil
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
