// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	SKU         string         `json:"sku" gorm:"uniqueIndex;size:64;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category" gorm:"size:100;index"`
	BasePrice   float64        `json:"base_price" gorm:"type:decimal(10,2);not null"`
	// Aggregate stock counter across all variants plus no-variant stock.
	// Variant orders draw this down alongside the variant's own counter.
	InventoryCount int            `json:"inventory_count" gorm:"default:0"`
	Images         pq.StringArray `json:"images" gorm:"type:text[]"`
	IsActive       bool           `json:"is_active" gorm:"default:true;index"`

	// Relationships
	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

type ProductVariant struct {
	BaseModel
	ProductID       uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name            string    `json:"name" gorm:"size:255;not null"`
	PriceAdjustment float64   `json:"price_adjustment" gorm:"type:decimal(10,2);default:0"`
	InventoryCount  int       `json:"inventory_count" gorm:"default:0"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// UnitPrice is the price snapshot taken when the variant is ordered.
func (v *ProductVariant) UnitPrice(base float64) float64 {
	return base + v.PriceAdjustment
}
