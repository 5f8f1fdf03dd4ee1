// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

// OrderNotification is an in-app notification row announcing an order
// status. A unique index on (user_id, order_id, status) guarantees at most
// one row per recipient per order per status; inserts use ON CONFLICT DO
// NOTHING and treat a zero rows-affected result as the dedup signal.
type OrderNotification struct {
	BaseModel
	UserID  uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index:idx_order_notifications_dedup,unique"`
	OrderID uuid.UUID   `json:"order_id" gorm:"type:uuid;not null;index:idx_order_notifications_dedup,unique"`
	Status  OrderStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_order_notifications_dedup,unique"`
	IsRead  bool        `json:"is_read" gorm:"default:false;index"`

	// Relationships
	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
