// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
)

type Cart struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`

	// Relationships
	Items []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
}

type CartItem struct {
	BaseModel
	CartID    uuid.UUID  `json:"cart_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `json:"variant_id,omitempty" gorm:"type:uuid;index"`
	Quantity  int        `json:"quantity" gorm:"not null"`

	// Relationships
	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}
