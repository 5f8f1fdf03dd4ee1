// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/franchisehub/supply-backend/internal/models"
)

// InventoryService is the only code path allowed to mutate stock counters.
// Every adjustment runs inside a transaction holding SELECT ... FOR UPDATE
// locks on the rows it re-reads, so two concurrent decrements can never
// both observe sufficient stock and drive a counter negative.
//
// The product-level counter is an aggregate across all variants plus
// no-variant stock: ordering a variant draws down both the variant row and
// the aggregate, once each.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// Decrease reserves stock, failing with ErrInsufficientStock when either
// the product or the variant cannot cover the quantity. Nothing is written
// on failure.
func (s *InventoryService) Decrease(productID uuid.UUID, quantity int, variantID *uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := s.DecreaseTx(tx, productID, quantity, variantID)
		return err
	})
}

// Increase releases stock. There is no upper bound check.
func (s *InventoryService) Increase(productID uuid.UUID, quantity int, variantID *uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.IncreaseTx(tx, productID, quantity, variantID)
	})
}

// DecreaseTx performs the locked check-and-decrement inside the caller's
// transaction and returns the locked rows so callers can snapshot prices
// without a second read.
func (s *InventoryService) DecreaseTx(tx *gorm.DB, productID uuid.UUID, quantity int, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to lock product: %w", err)
	}

	var variant *models.ProductVariant
	if variantID != nil {
		var v models.ProductVariant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&v, "id = ? AND product_id = ?", *variantID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("variant %s: %w", *variantID, ErrNotFound)
			}
			return nil, nil, fmt.Errorf("failed to lock variant: %w", err)
		}
		variant = &v

		if variant.InventoryCount < quantity {
			return nil, nil, fmt.Errorf("variant %s has %d of %d requested: %w",
				variant.Name, variant.InventoryCount, quantity, ErrInsufficientStock)
		}
	}

	if product.InventoryCount < quantity {
		return nil, nil, fmt.Errorf("product %s has %d of %d requested: %w",
			product.Name, product.InventoryCount, quantity, ErrInsufficientStock)
	}

	if variant != nil {
		if err := tx.Model(variant).UpdateColumn("inventory_count",
			gorm.Expr("inventory_count - ?", quantity)).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to update variant inventory: %w", err)
		}
		variant.InventoryCount -= quantity
	}

	if err := tx.Model(&product).UpdateColumn("inventory_count",
		gorm.Expr("inventory_count - ?", quantity)).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update product inventory: %w", err)
	}
	product.InventoryCount -= quantity

	return &product, variant, nil
}

// IncreaseTx mirrors DecreaseTx: a variant increase also restores the
// product aggregate.
func (s *InventoryService) IncreaseTx(tx *gorm.DB, productID uuid.UUID, quantity int, variantID *uuid.UUID) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if variantID != nil {
		var variant models.ProductVariant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&variant, "id = ? AND product_id = ?", *variantID, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("variant %s: %w", *variantID, ErrNotFound)
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}

		if err := tx.Model(&variant).UpdateColumn("inventory_count",
			gorm.Expr("inventory_count + ?", quantity)).Error; err != nil {
			return fmt.Errorf("failed to update variant inventory: %w", err)
		}
	}

	if err := tx.Model(&product).UpdateColumn("inventory_count",
		gorm.Expr("inventory_count + ?", quantity)).Error; err != nil {
		return fmt.Errorf("failed to update product inventory: %w", err)
	}

	return nil
}
