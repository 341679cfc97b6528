package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SaleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "sale_operations_total",
		Help:      "Sale lifecycle operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	StockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "stock_insufficient_total",
		Help:      "Sale requests rejected for insufficient stock.",
	})

	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "stock_movements_total",
		Help:      "Stock ledger entries by kind.",
	}, []string{"kind"})

	LowStockAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "low_stock_alerts_total",
		Help:      "Stock changes that left a medication at or below its minimum.",
	})
)
