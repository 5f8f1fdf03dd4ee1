// internal/services/order_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/franchisehub/supply-backend/internal/config"
	"github.com/franchisehub/supply-backend/internal/integrations"
	"github.com/franchisehub/supply-backend/internal/models"
)

type fakeBillingClient struct {
	enabled  bool
	fallback config.FallbackBehavior
	failAll  bool
	invoices []string
}

func (f *fakeBillingClient) Enabled() bool                     { return f.enabled }
func (f *fakeBillingClient) Fallback() config.FallbackBehavior { return f.fallback }

func (f *fakeBillingClient) UpsertInvoice(ctx context.Context, orderNumber, customerName string, total float64, lines []integrations.InvoiceLine) (string, error) {
	if !f.enabled || f.failAll {
		return "", integrations.ErrBillingDisabled
	}
	id := "QB-" + orderNumber
	f.invoices = append(f.invoices, id)
	return id, nil
}

type OrderServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *OrderService
	billing *fakeBillingClient
}

func (s *OrderServiceTestSuite) SetupSuite() {
	s.db = openTestDB(s.T())
}

func (s *OrderServiceTestSuite) SetupTest() {
	truncateAll(s.T(), s.db)

	inventory := NewInventoryService(s.db)
	carts := NewCartService(s.db)
	dispatcher := NewNotificationDispatcher(s.db, &fakeEmailSender{}, &fakePushSender{}, &fakeWhatsAppSender{})
	s.billing = &fakeBillingClient{enabled: true, fallback: config.FallbackMock}
	s.service = NewOrderService(s.db, inventory, NewOrderStateMachine(), dispatcher, s.billing, carts)
}

func (s *OrderServiceTestSuite) seedFranchisee() *models.User {
	user := &models.User{
		Username: "joes_pizza",
		Email:    "joe@example.com",
		Role:     models.UserRoleFranchisee,
		Status:   models.UserStatusActive,
	}
	s.Require().NoError(user.SetPassword("Str0ng!Pass"))
	s.Require().NoError(s.db.Create(user).Error)
	profile := &models.FranchiseeProfile{UserID: user.ID, CompanyName: "Joe's Pizza LLC"}
	s.Require().NoError(s.db.Create(profile).Error)
	return user
}

func (s *OrderServiceTestSuite) seedAdmin() *models.User {
	user := &models.User{
		Username: "hq_admin",
		Email:    "admin@hq.com",
		Role:     models.UserRoleAdmin,
		Status:   models.UserStatusActive,
	}
	s.Require().NoError(user.SetPassword("Str0ng!Pass"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *OrderServiceTestSuite) seedProduct(stock int, price float64) *models.Product {
	product := &models.Product{
		Name:           "Napkins",
		SKU:            "NAP-" + uuid.New().String()[:8],
		BasePrice:      price,
		InventoryCount: stock,
		IsActive:       true,
	}
	s.Require().NoError(s.db.Create(product).Error)
	return product
}

func (s *OrderServiceTestSuite) createRequest(items ...OrderItemRequest) *CreateOrderRequest {
	return &CreateOrderRequest{
		Items:           items,
		ShippingAddress: "1 Main St",
		ShippingCity:    "Springfield",
		ShippingState:   "IL",
		ShippingZip:     "62701",
	}
}

func (s *OrderServiceTestSuite) TestCreateOrderReservesStockAndSnapshotsPrices() {
	user := s.seedFranchisee()
	product := s.seedProduct(10, 4.50)

	order, result, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 3}))

	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, order.Status)
	s.InDelta(13.50, order.TotalAmount, 0.001)
	s.True(strings.HasPrefix(order.OrderNumber, "SO-"))
	s.Require().Len(order.Items, 1)
	s.InDelta(4.50, order.Items[0].UnitPrice, 0.001)
	s.NotNil(result)

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(7, reloaded.InventoryCount)
}

func (s *OrderServiceTestSuite) TestCreateOrderInsufficientStockLeavesNothingBehind() {
	user := s.seedFranchisee()
	cheap := s.seedProduct(10, 1.00)
	scarce := s.seedProduct(1, 2.00)

	_, _, err := s.service.CreateOrder(context.Background(), user.ID, s.createRequest(
		OrderItemRequest{ProductID: cheap.ID, Quantity: 5},
		OrderItemRequest{ProductID: scarce.ID, Quantity: 2},
	))
	s.True(errors.Is(err, ErrInsufficientStock))

	// The whole transaction rolled back: no order rows and untouched stock.
	var orderCount int64
	s.NoError(s.db.Model(&models.Order{}).Count(&orderCount).Error)
	s.Zero(orderCount)

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", cheap.ID).Error)
	s.Equal(10, reloaded.InventoryCount)
}

func (s *OrderServiceTestSuite) TestCreateOrderFromCartClearsCart() {
	user := s.seedFranchisee()
	product := s.seedProduct(10, 2.25)

	carts := NewCartService(s.db)
	_, err := carts.AddItem(user.ID, &AddCartItemRequest{ProductID: product.ID, Quantity: 4})
	s.Require().NoError(err)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID, s.createRequest())
	s.Require().NoError(err)
	s.InDelta(9.00, order.TotalAmount, 0.001)

	cart, err := carts.GetOrCreate(user.ID)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *OrderServiceTestSuite) TestCreateOrderEmptyCartFails() {
	user := s.seedFranchisee()
	_, _, err := s.service.CreateOrder(context.Background(), user.ID, s.createRequest())
	s.Error(err)
}

func (s *OrderServiceTestSuite) TestCreateOrderNotifiesStaffInApp() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, result, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)
	s.Equal(1, result.InAppCreated)

	var rows []models.OrderNotification
	s.NoError(s.db.Where("order_id = ?", order.ID).Find(&rows).Error)
	s.Require().Len(rows, 1)
	s.Equal(admin.ID, rows[0].UserID)
	s.Equal(models.OrderStatusPending, rows[0].Status)
}

func (s *OrderServiceTestSuite) TestUpdateStatusHappyPath() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 2}))
	s.Require().NoError(err)

	updated, _, err := s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusApproved, admin.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusApproved, updated.Status)

	// Approval does not restock anything.
	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(8, reloaded.InventoryCount)
}

func (s *OrderServiceTestSuite) TestUpdateStatusRejectReleasesInventory() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 4}))
	s.Require().NoError(err)

	_, _, err = s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusRejected, admin.ID)
	s.Require().NoError(err)

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(10, reloaded.InventoryCount)
}

func (s *OrderServiceTestSuite) TestUpdateStatusSameStatusIsIdempotent() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	updated, result, err := s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusPending, admin.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, updated.Status)
	s.Zero(result.InAppCreated)
}

func (s *OrderServiceTestSuite) TestUpdateStatusIllegalTransition() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	_, _, err = s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped, admin.ID)
	s.True(errors.Is(err, ErrInvalidTransition))
}

func (s *OrderServiceTestSuite) TestUpdateStatusRequiresStaff() {
	franchisee := s.seedFranchisee()
	_, _, err := s.service.UpdateStatus(context.Background(), uuid.New(), models.OrderStatusApproved, franchisee.ID)
	s.True(errors.Is(err, ErrUnauthorized))
}

func (s *OrderServiceTestSuite) TestUpdateStatusUnknownActorRejected() {
	_, _, err := s.service.UpdateStatus(context.Background(), uuid.New(), models.OrderStatusApproved, uuid.New())
	s.True(errors.Is(err, ErrUnauthorized))
}

// A blocked staff account holding a still-valid token must not be able to
// move orders: the actor row is re-read on every transition.
func (s *OrderServiceTestSuite) TestUpdateStatusBlockedStaffRejected() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(admin).Update("status", models.UserStatusBlocked).Error)

	_, _, err = s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusApproved, admin.ID)
	s.True(errors.Is(err, ErrUnauthorized))

	var reloaded models.Order
	s.NoError(s.db.First(&reloaded, "id = ?", order.ID).Error)
	s.Equal(models.OrderStatusPending, reloaded.Status)
}

func (s *OrderServiceTestSuite) TestRepeatedDispatchDeduplicatesInApp() {
	user := s.seedFranchisee()
	admin := s.seedAdmin()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	_, first, err := s.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusApproved, admin.ID)
	s.Require().NoError(err)
	s.Equal(1, first.InAppCreated) // owner row; no warehouse user seeded

	// Replaying the same event through the dispatcher hits the unique
	// index and creates nothing new.
	previous := models.OrderStatusPending
	var reloaded models.Order
	s.Require().NoError(s.db.First(&reloaded, "id = ?", order.ID).Error)
	second := s.service.dispatcher.Dispatch(context.Background(), &reloaded, &previous)
	s.Zero(second.InAppCreated)
	s.Equal(1, second.InAppSkipped)
}

func (s *OrderServiceTestSuite) TestSyncInvoiceStoresRealID() {
	user := s.seedFranchisee()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	invoiceID, warnings, err := s.service.SyncInvoice(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal("QB-"+order.OrderNumber, invoiceID)
	s.Empty(warnings)

	var reloaded models.Order
	s.NoError(s.db.First(&reloaded, "id = ?", order.ID).Error)
	s.Require().NotNil(reloaded.QBInvoiceID)
	s.Equal(invoiceID, *reloaded.QBInvoiceID)
}

func (s *OrderServiceTestSuite) TestSyncInvoiceFallsBackToLocalID() {
	user := s.seedFranchisee()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	s.billing.failAll = true
	invoiceID, warnings, err := s.service.SyncInvoice(context.Background(), order.ID)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(invoiceID, FallbackInvoicePrefix))
	s.NotEmpty(warnings)
}

func (s *OrderServiceTestSuite) TestSyncInvoiceErrorFallbackSurfacesFailure() {
	user := s.seedFranchisee()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), user.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	s.billing.failAll = true
	s.billing.fallback = config.FallbackError
	_, _, err = s.service.SyncInvoice(context.Background(), order.ID)
	s.True(errors.Is(err, ErrExternalService))
}

func (s *OrderServiceTestSuite) TestGetOrderHidesOtherFranchiseeOrders() {
	owner := s.seedFranchisee()
	product := s.seedProduct(10, 1.00)

	order, _, err := s.service.CreateOrder(context.Background(), owner.ID,
		s.createRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	s.Require().NoError(err)

	_, err = s.service.GetOrder(order.ID, uuid.New(), models.UserRoleFranchisee)
	s.True(errors.Is(err, ErrNotFound))

	// Staff see everything.
	got, err := s.service.GetOrder(order.ID, uuid.New(), models.UserRoleAdmin)
	s.NoError(err)
	s.Equal(order.ID, got.ID)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
