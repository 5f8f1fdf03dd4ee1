// internal/services/order_state_test.go
package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/franchisehub/supply-backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	m := NewOrderStateMachine()

	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{"pending to approved", models.OrderStatusPending, models.OrderStatusApproved, true},
		{"pending to rejected", models.OrderStatusPending, models.OrderStatusRejected, true},
		{"pending to cancelled", models.OrderStatusPending, models.OrderStatusCancelled, true},
		{"approved to packed", models.OrderStatusApproved, models.OrderStatusPacked, true},
		{"approved to cancelled", models.OrderStatusApproved, models.OrderStatusCancelled, true},
		{"packed to shipped", models.OrderStatusPacked, models.OrderStatusShipped, true},
		{"shipped to delivered", models.OrderStatusShipped, models.OrderStatusDelivered, true},

		{"pending to packed skips approval", models.OrderStatusPending, models.OrderStatusPacked, false},
		{"pending to shipped skips stages", models.OrderStatusPending, models.OrderStatusShipped, false},
		{"approved to rejected too late", models.OrderStatusApproved, models.OrderStatusRejected, false},
		{"packed to cancelled too late", models.OrderStatusPacked, models.OrderStatusCancelled, false},
		{"shipped to cancelled too late", models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{"delivered is terminal", models.OrderStatusDelivered, models.OrderStatusPending, false},
		{"rejected is terminal", models.OrderStatusRejected, models.OrderStatusApproved, false},
		{"cancelled is terminal", models.OrderStatusCancelled, models.OrderStatusPending, false},
		{"delivered back to shipped", models.OrderStatusDelivered, models.OrderStatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, m.CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionAppliesStatus(t *testing.T) {
	m := NewOrderStateMachine()

	order := &models.Order{Status: models.OrderStatusPending}
	previous, changed, err := m.Transition(order, models.OrderStatusApproved)

	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OrderStatusPending, previous)
	assert.Equal(t, models.OrderStatusApproved, order.Status)
	assert.Nil(t, order.ShippedAt)
	assert.Nil(t, order.DeliveredAt)
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	m := NewOrderStateMachine()

	order := &models.Order{Status: models.OrderStatusApproved}
	previous, changed, err := m.Transition(order, models.OrderStatusApproved)

	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.OrderStatusApproved, previous)
	assert.Equal(t, models.OrderStatusApproved, order.Status)
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	m := NewOrderStateMachine()

	order := &models.Order{Status: models.OrderStatusPending}
	_, changed, err := m.Transition(order, models.OrderStatus("bogus"))

	assert.False(t, changed)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	m := NewOrderStateMachine()

	order := &models.Order{Status: models.OrderStatusShipped}
	_, changed, err := m.Transition(order, models.OrderStatusCancelled)

	assert.False(t, changed)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, models.OrderStatusShipped, order.Status)
}

func TestTransitionStampsTimestamps(t *testing.T) {
	m := NewOrderStateMachine()

	order := &models.Order{Status: models.OrderStatusPacked}
	_, _, err := m.Transition(order, models.OrderStatusShipped)
	assert.NoError(t, err)
	assert.NotNil(t, order.ShippedAt)
	assert.Nil(t, order.DeliveredAt)

	_, _, err = m.Transition(order, models.OrderStatusDelivered)
	assert.NoError(t, err)
	assert.NotNil(t, order.DeliveredAt)
}

func TestReleasesInventory(t *testing.T) {
	m := NewOrderStateMachine()

	assert.True(t, m.ReleasesInventory(models.OrderStatusRejected))
	assert.True(t, m.ReleasesInventory(models.OrderStatusCancelled))
	assert.False(t, m.ReleasesInventory(models.OrderStatusApproved))
	assert.False(t, m.ReleasesInventory(models.OrderStatusDelivered))
	assert.False(t, m.ReleasesInventory(models.OrderStatusPending))
}
