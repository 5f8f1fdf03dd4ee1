// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franchisehub/supply-backend/internal/config"
	"github.com/franchisehub/supply-backend/internal/integrations"
	"github.com/franchisehub/supply-backend/internal/metrics"
	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/utils"
)

// FallbackInvoicePrefix marks locally generated invoice ids stored when
// the billing integration is disabled or unreachable. Real QuickBooks ids
// never carry it.
const FallbackInvoicePrefix = "LOCAL-"

// BillingClient is the QuickBooks-shaped collaborator; satisfied by
// integrations.QuickBooksClient, faked in tests.
type BillingClient interface {
	Enabled() bool
	Fallback() config.FallbackBehavior
	UpsertInvoice(ctx context.Context, orderNumber, customerName string, total float64, lines []integrations.InvoiceLine) (string, error)
}

// OrderService orchestrates checkout and the order lifecycle: it composes
// the state machine, the inventory ledger and the notification dispatcher.
// Stock is reserved at checkout and released when an order is rejected or
// cancelled; that is the point of the ledger's oversell guarantee.
type OrderService struct {
	db         *gorm.DB
	inventory  *InventoryService
	state      *OrderStateMachine
	dispatcher *NotificationDispatcher
	billing    BillingClient
	carts      *CartService
}

type OrderItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	// Empty Items means "check out my cart".
	Items              []OrderItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
	ShippingAddress    string             `json:"shipping_address" validate:"required"`
	ShippingCity       string             `json:"shipping_city" validate:"required"`
	ShippingState      string             `json:"shipping_state" validate:"required"`
	ShippingZip        string             `json:"shipping_zip" validate:"required"`
	DeliveryDate       *time.Time         `json:"delivery_date,omitempty"`
	DeliveryTime       string             `json:"delivery_time,omitempty"`
	DeliveryPreference string             `json:"delivery_preference,omitempty"`
	Notes              string             `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type OrderSearchParams struct {
	utils.PaginationParams
	UserID *uuid.UUID          `json:"user_id,omitempty"`
	Status *models.OrderStatus `json:"status,omitempty"`
}

func NewOrderService(db *gorm.DB, inventory *InventoryService, state *OrderStateMachine, dispatcher *NotificationDispatcher, billing BillingClient, carts *CartService) *OrderService {
	return &OrderService{
		db:         db,
		inventory:  inventory,
		state:      state,
		dispatcher: dispatcher,
		billing:    billing,
		carts:      carts,
	}
}

// CreateOrder checks out the given lines (or the user's cart when none are
// given). Order, items and inventory reservation commit as one unit; the
// notification fan-out runs only after the commit so its content always
// reflects persisted state.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, *DispatchResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if user.Status != models.UserStatusActive {
		return nil, nil, fmt.Errorf("account is blocked: %w", ErrUnauthorized)
	}

	lines := req.Items
	fromCart := false
	if len(lines) == 0 {
		cartLines, err := s.carts.CheckoutLines(userID)
		if err != nil {
			return nil, nil, err
		}
		lines = cartLines
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, nil, errors.New("order must contain at least one item")
	}

	order := &models.Order{
		UserID:             userID,
		OrderNumber:        newOrderNumber(),
		Status:             models.OrderStatusPending,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingState:      req.ShippingState,
		ShippingZip:        req.ShippingZip,
		DeliveryDate:       req.DeliveryDate,
		DeliveryTime:       req.DeliveryTime,
		DeliveryPreference: req.DeliveryPreference,
		Notes:              req.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var total float64
		var items []models.OrderItem

		for _, line := range lines {
			// Locks the rows, verifies stock and decrements both counters;
			// the locked rows carry the values snapshotted into the item.
			product, variant, err := s.inventory.DecreaseTx(tx, line.ProductID, line.Quantity, line.VariantID)
			if err != nil {
				return err
			}

			unitPrice := product.BasePrice
			if variant != nil {
				unitPrice = variant.UnitPrice(product.BasePrice)
			}

			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
			})
			total += unitPrice * float64(line.Quantity)
		}

		order.TotalAmount = total
		order.Items = items

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if fromCart {
			if err := s.carts.ClearTx(tx, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.OrdersCreated.Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        order.TotalAmount,
	}).Info("Order created")

	result := s.dispatcher.Dispatch(ctx, order, nil)
	return order, result, nil
}

// UpdateStatus validates and commits a transition, then fans out
// notifications. The actor row is re-read so a blocked account cannot ride
// a still-valid token, and the order row is re-read under FOR UPDATE so two
// racing updates cannot both depart from the same status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target models.OrderStatus, actorID uuid.UUID) (*models.Order, *DispatchResult, error) {
	var actor models.User
	if err := s.db.First(&actor, "id = ?", actorID).Error; err != nil {
		return nil, nil, fmt.Errorf("actor %s: %w", actorID, ErrUnauthorized)
	}
	if !actor.IsStaff() {
		return nil, nil, fmt.Errorf("only staff may change order status: %w", ErrUnauthorized)
	}
	if actor.Status != models.UserStatusActive {
		return nil, nil, fmt.Errorf("account is blocked: %w", ErrUnauthorized)
	}

	var order models.Order
	var previous models.OrderStatus
	var changed bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		var err error
		previous, changed, err = s.state.Transition(&order, target)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		updates := map[string]interface{}{"status": order.Status}
		if order.ShippedAt != nil {
			updates["shipped_at"] = order.ShippedAt
		}
		if order.DeliveredAt != nil {
			updates["delivered_at"] = order.DeliveredAt
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to persist transition: %w", err)
		}

		// Rejection and cancellation hand the reserved stock back.
		if s.state.ReleasesInventory(order.Status) {
			for _, item := range order.Items {
				if err := s.inventory.IncreaseTx(tx, item.ProductID, item.Quantity, item.VariantID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !changed {
		return &order, &DispatchResult{}, nil
	}

	metrics.OrderTransitions.WithLabelValues(string(previous), string(order.Status)).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       order.Status,
	}).Info("Order status changed")

	result := s.dispatcher.Dispatch(ctx, &order, &previous)
	return &order, result, nil
}

// SyncInvoice pushes the order to the billing integration and stores the
// returned invoice id. No database locks are held across the outbound
// call. When billing is disabled or failing and fallback is "mock", a
// LOCAL- id is stored instead so the user-facing flow never blocks on
// third-party availability.
func (s *OrderService) SyncInvoice(ctx context.Context, orderID uuid.UUID) (string, []string, error) {
	var order models.Order
	if err := s.db.Preload("Items.Product").Preload("User.Profile").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return "", nil, fmt.Errorf("database error: %w", err)
	}

	customerName := order.User.Username
	if order.User.Profile != nil && order.User.Profile.CompanyName != "" {
		customerName = order.User.Profile.CompanyName
	}

	var lines []integrations.InvoiceLine
	for _, item := range order.Items {
		description := "Item"
		if item.Product != nil {
			description = item.Product.Name
		}
		lines = append(lines, integrations.InvoiceLine{
			Description: description,
			Amount:      item.LineTotal(),
			Quantity:    item.Quantity,
		})
	}

	var warnings []string
	invoiceID, err := s.billing.UpsertInvoice(ctx, order.OrderNumber, customerName, order.TotalAmount, lines)
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Billing sync failed")
		if s.billing.Fallback() != config.FallbackMock {
			metrics.InvoiceSyncs.WithLabelValues("error").Inc()
			return "", nil, fmt.Errorf("billing sync failed: %w", ErrExternalService)
		}
		invoiceID = fallbackInvoiceID(&order)
		warnings = append(warnings, "billing integration unavailable, stored local fallback invoice id")
		metrics.InvoiceSyncs.WithLabelValues("fallback").Inc()
	} else {
		metrics.InvoiceSyncs.WithLabelValues("synced").Inc()
	}

	if err := s.db.Model(&order).Update("qb_invoice_id", invoiceID).Error; err != nil {
		return "", warnings, fmt.Errorf("failed to store invoice id: %w", err)
	}

	return invoiceID, warnings, nil
}

func (s *OrderService) GetOrder(orderID, actorID uuid.UUID, actorRole models.UserRole) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items.Product").Preload("Items.Variant").Preload("User").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Franchisees only ever see their own orders.
	if actorRole == models.UserRoleFranchisee && order.UserID != actorID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}

	return &order, nil
}

func (s *OrderService) SearchOrders(params OrderSearchParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Preload("User")

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ?", searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "total_amount"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("SO-%s-%s", time.Now().Format("20060102"), suffix)
}

func fallbackInvoiceID(order *models.Order) string {
	return FallbackInvoicePrefix + order.OrderNumber
}
