// internal/services/inventory_service_test.go
package services

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/franchisehub/supply-backend/internal/database"
	"github.com/franchisehub/supply-backend/internal/models"
)

// openTestDB connects to the database named by TEST_DATABASE_DSN and runs
// migrations. Suites that need Postgres call it from SetupSuite and skip
// when the variable is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func truncateAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`TRUNCATE order_notifications, order_items, orders, cart_items, carts,
		product_variants, products, franchisee_profiles, users CASCADE`).Error
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

type InventoryServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *InventoryService
}

func (s *InventoryServiceTestSuite) SetupSuite() {
	s.db = openTestDB(s.T())
	s.service = NewInventoryService(s.db)
}

func (s *InventoryServiceTestSuite) SetupTest() {
	truncateAll(s.T(), s.db)
}

func (s *InventoryServiceTestSuite) seedProduct(stock int) *models.Product {
	product := &models.Product{
		Name:           "Pizza Boxes 12in",
		SKU:            "BOX-12",
		BasePrice:      24.99,
		InventoryCount: stock,
		IsActive:       true,
	}
	s.Require().NoError(s.db.Create(product).Error)
	return product
}

func (s *InventoryServiceTestSuite) seedVariant(product *models.Product, stock int) *models.ProductVariant {
	variant := &models.ProductVariant{
		ProductID:       product.ID,
		Name:            "Case of 50",
		PriceAdjustment: 5.00,
		InventoryCount:  stock,
	}
	s.Require().NoError(s.db.Create(variant).Error)
	return variant
}

func (s *InventoryServiceTestSuite) TestDecreaseProduct() {
	product := s.seedProduct(10)

	err := s.service.Decrease(product.ID, 4, nil)
	s.NoError(err)

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(6, reloaded.InventoryCount)
}

func (s *InventoryServiceTestSuite) TestDecreaseInsufficientStockRollsBack() {
	product := s.seedProduct(3)

	err := s.service.Decrease(product.ID, 5, nil)
	s.True(errors.Is(err, ErrInsufficientStock))

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(3, reloaded.InventoryCount)
}

func (s *InventoryServiceTestSuite) TestDecreaseVariantDrawsDownBothCounters() {
	product := s.seedProduct(20)
	variant := s.seedVariant(product, 8)

	err := s.service.Decrease(product.ID, 3, &variant.ID)
	s.NoError(err)

	var reloadedProduct models.Product
	var reloadedVariant models.ProductVariant
	s.NoError(s.db.First(&reloadedProduct, "id = ?", product.ID).Error)
	s.NoError(s.db.First(&reloadedVariant, "id = ?", variant.ID).Error)
	s.Equal(17, reloadedProduct.InventoryCount)
	s.Equal(5, reloadedVariant.InventoryCount)
}

func (s *InventoryServiceTestSuite) TestDecreaseVariantInsufficientStock() {
	product := s.seedProduct(20)
	variant := s.seedVariant(product, 2)

	err := s.service.Decrease(product.ID, 3, &variant.ID)
	s.True(errors.Is(err, ErrInsufficientStock))

	var reloadedProduct models.Product
	s.NoError(s.db.First(&reloadedProduct, "id = ?", product.ID).Error)
	s.Equal(20, reloadedProduct.InventoryCount)
}

func (s *InventoryServiceTestSuite) TestIncreaseRestoresBothCounters() {
	product := s.seedProduct(5)
	variant := s.seedVariant(product, 1)

	s.NoError(s.service.Increase(product.ID, 4, &variant.ID))

	var reloadedProduct models.Product
	var reloadedVariant models.ProductVariant
	s.NoError(s.db.First(&reloadedProduct, "id = ?", product.ID).Error)
	s.NoError(s.db.First(&reloadedVariant, "id = ?", variant.ID).Error)
	s.Equal(9, reloadedProduct.InventoryCount)
	s.Equal(5, reloadedVariant.InventoryCount)
}

func (s *InventoryServiceTestSuite) TestDecreaseRejectsNonPositiveQuantity() {
	product := s.seedProduct(5)
	s.Error(s.service.Decrease(product.ID, 0, nil))
	s.Error(s.service.Decrease(product.ID, -2, nil))
}

// Concurrent decrements against limited stock must never oversell: with 5
// units and 10 single-unit buyers exactly 5 succeed.
func (s *InventoryServiceTestSuite) TestConcurrentDecrementsNeverOversell() {
	product := s.seedProduct(5)

	const buyers = 10
	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.service.Decrease(product.ID, 1, nil)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(s.T(), errors.Is(err, ErrInsufficientStock))
		}
	}
	s.Equal(5, succeeded)

	var reloaded models.Product
	s.NoError(s.db.First(&reloaded, "id = ?", product.ID).Error)
	s.Equal(0, reloaded.InventoryCount)
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}
