package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "livemart",
		Name:      "orders_placed_total",
		Help:      "Orders committed with stock deducted.",
	})

	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livemart",
		Name:      "orders_rejected_total",
		Help:      "Orders rolled back, by reason.",
	}, []string{"reason"})

	wholesaleApproved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "livemart",
		Name:      "wholesale_approved_total",
		Help:      "Wholesale requests approved and credited to inventory.",
	})
)
