// internal/services/order_state.go
package services

import (
	"fmt"
	"time"

	"github.com/franchisehub/supply-backend/internal/models"
)

// OrderStateMachine owns the order lifecycle. It validates and applies
// status transitions in memory; persistence, inventory and notification
// side effects stay with the orchestrator.
type OrderStateMachine struct{}

func NewOrderStateMachine() *OrderStateMachine {
	return &OrderStateMachine{}
}

// allowedTransitions is the full lifecycle:
// pending -> approved -> packed -> shipped -> delivered, with pending ->
// rejected and {pending, approved} -> cancelled as the only exits.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:  {models.OrderStatusApproved, models.OrderStatusRejected, models.OrderStatusCancelled},
	models.OrderStatusApproved: {models.OrderStatusPacked, models.OrderStatusCancelled},
	models.OrderStatusPacked:   {models.OrderStatusShipped},
	models.OrderStatusShipped:  {models.OrderStatusDelivered},
}

func (m *OrderStateMachine) CanTransition(from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies target to the order and returns the previous status
// plus whether anything changed. Writing the current status back is an
// idempotent no-op success (changed=false) so retried webhooks do not
// re-trigger downstream fan-out.
func (m *OrderStateMachine) Transition(order *models.Order, target models.OrderStatus) (models.OrderStatus, bool, error) {
	previous := order.Status

	if !target.Valid() {
		return previous, false, fmt.Errorf("unknown status %q: %w", target, ErrInvalidTransition)
	}

	if target == previous {
		return previous, false, nil
	}

	if !m.CanTransition(previous, target) {
		return previous, false, fmt.Errorf("cannot move order from %q to %q: %w", previous, target, ErrInvalidTransition)
	}

	order.Status = target

	now := time.Now()
	switch target {
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	return previous, true, nil
}

// ReleasesInventory reports whether entering the status returns reserved
// stock to the shelves.
func (m *OrderStateMachine) ReleasesInventory(status models.OrderStatus) bool {
	return status == models.OrderStatusRejected || status == models.OrderStatusCancelled
}
