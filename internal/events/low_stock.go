package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/sirupsen/logrus"

	"farmacia/m/internal/metrics"
)

// NewLowStockHandler warns when a change leaves a medication at or below its minimum.
// alerts, when non-nil, receives every event that triggered a warning.
func NewLowStockHandler(logger logrus.FieldLogger, alerts chan<- StockChanged) cqrs.EventHandler {
	return cqrs.NewEventHandler("LowStockAlert", func(ctx context.Context, event *StockChanged) error {
		metrics.StockMovements.WithLabelValues(event.Kind).Inc()
		if event.QuantityAfter > event.MinStock {
			return nil
		}

		metrics.LowStockAlerts.Inc()
		logger.WithFields(logrus.Fields{
			"medication_id": event.MedicationID,
			"quantity":      event.QuantityAfter,
			"min_stock":     event.MinStock,
			"kind":          event.Kind,
		}).Warn("medication at or below minimum stock")

		if alerts != nil {
			select {
			case alerts <- *event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}
