// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supply_orders_created_total",
		Help: "Orders successfully created at checkout.",
	})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_order_transitions_total",
		Help: "Committed order status transitions.",
	}, []string{"from", "to"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_notifications_total",
		Help: "Notification delivery attempts by channel and outcome.",
	}, []string{"channel", "outcome"})

	InvoiceSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_invoice_syncs_total",
		Help: "Billing sync attempts by outcome (synced, fallback, error).",
	}, []string{"outcome"})
)
