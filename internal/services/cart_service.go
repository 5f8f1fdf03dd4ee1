// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/utils"
)

// CartService manages the per-user draft order. Carts never reserve stock;
// availability is only checked at checkout.
type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreate returns the user's cart with its items, creating an empty one
// on first use.
func (s *CartService) GetOrCreate(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items.Product").Preload("Items.Variant").
		First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	cart = models.Cart{UserID: userID}
	if err := s.db.Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

// AddItem adds a line to the cart, merging with an existing line for the
// same product and variant instead of duplicating it.
func (s *CartService) AddItem(userID uuid.UUID, req *AddCartItemRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, "id = ? AND is_active = ?", req.ProductID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", req.ProductID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if req.VariantID != nil {
		var variant models.ProductVariant
		if err := s.db.First(&variant, "id = ? AND product_id = ?", *req.VariantID, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("variant %s: %w", *req.VariantID, ErrNotFound)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	cart, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		query := tx.Where("cart_id = ? AND product_id = ?", cart.ID, req.ProductID)
		if req.VariantID != nil {
			query = query.Where("variant_id = ?", *req.VariantID)
		} else {
			query = query.Where("variant_id IS NULL")
		}

		if err := query.First(&existing).Error; err == nil {
			return tx.Model(&existing).Update("quantity", existing.Quantity+req.Quantity).Error
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check cart item: %w", err)
		}

		item := models.CartItem{
			CartID:    cart.ID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return s.GetOrCreate(userID)
}

func (s *CartService) UpdateItem(userID, itemID uuid.UUID, req *UpdateCartItemRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetOrCreate(userID)
}

func (s *CartService) RemoveItem(userID, itemID uuid.UUID) (*models.Cart, error) {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.GetOrCreate(userID)
}

func (s *CartService) Clear(userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ClearTx(tx, userID)
	})
}

// ClearTx empties the cart inside the caller's transaction; checkout uses it
// so a failed order leaves the cart untouched.
func (s *CartService) ClearTx(tx *gorm.DB, userID uuid.UUID) error {
	var cart models.Cart
	if err := tx.First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch cart: %w", err)
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// CheckoutLines converts the cart's items into order line requests.
func (s *CartService) CheckoutLines(userID uuid.UUID) ([]OrderItemRequest, error) {
	cart, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	lines := make([]OrderItemRequest, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, OrderItemRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

func (s *CartService) ownedItem(userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &item, nil
}
