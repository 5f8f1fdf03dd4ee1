// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	UserID      uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	OrderNumber string      `json:"order_number" gorm:"uniqueIndex;size:32;not null"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	// Computed once at creation from price snapshots; only admin correction
	// may rewrite it afterwards.
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(10,2);not null"`

	ShippingAddress    string     `json:"shipping_address" gorm:"size:255"`
	ShippingCity       string     `json:"shipping_city" gorm:"size:100"`
	ShippingState      string     `json:"shipping_state" gorm:"size:100"`
	ShippingZip        string     `json:"shipping_zip" gorm:"size:20"`
	DeliveryDate       *time.Time `json:"delivery_date"`
	DeliveryTime       string     `json:"delivery_time,omitempty" gorm:"size:50"`
	DeliveryPreference string     `json:"delivery_preference,omitempty" gorm:"size:100"`
	Notes              string     `json:"notes,omitempty" gorm:"type:text"`

	// External billing reference; LOCAL- prefixed values are locally
	// generated fallbacks, never real QuickBooks ids.
	QBInvoiceID *string    `json:"qb_invoice_id,omitempty" gorm:"size:64"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	// Relationships
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `json:"variant_id,omitempty" gorm:"type:uuid;index"`
	Quantity  int        `json:"quantity" gorm:"not null"`
	// Price snapshot at order time, not a live reference.
	UnitPrice float64 `json:"unit_price" gorm:"type:decimal(10,2);not null"`

	// Relationships
	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
