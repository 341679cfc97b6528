// Package events carries stock changes from the sale services to asynchronous consumers.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"farmacia/m/domain"
)

const topicPrefix = "events."

var marshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

type StockChanged struct {
	MedicationID  int64     `json:"medication_id"`
	SaleID        *int64    `json:"sale_id,omitempty"`
	Kind          string    `json:"kind"`
	Delta         int64     `json:"delta"`
	QuantityAfter int64     `json:"quantity_after"`
	MinStock      int64     `json:"min_stock"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Bus publishes stock events.
type Bus struct {
	eventBus *cqrs.EventBus
}

func NewBus(pub message.Publisher, logger watermill.LoggerAdapter) (*Bus, error) {
	eventBus, err := cqrs.NewEventBusWithConfig(pub, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return topicPrefix + params.EventName, nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create event bus: %w", err)
	}
	return &Bus{eventBus: eventBus}, nil
}

// PublishStockChanged emits one event per movement.
func (b *Bus) PublishStockChanged(ctx context.Context, movements []domain.StockMovement) error {
	for _, mv := range movements {
		event := StockChanged{
			MedicationID:  mv.MedicationID,
			SaleID:        mv.SaleID,
			Kind:          string(mv.Kind),
			Delta:         mv.Delta,
			QuantityAfter: mv.QuantityAfter,
			MinStock:      mv.MinStock,
			OccurredAt:    time.Now().UTC(),
		}
		if err := b.eventBus.Publish(ctx, event); err != nil {
			return fmt.Errorf("could not publish stock change of medication %d: %w", mv.MedicationID, err)
		}
	}
	return nil
}

// NewProcessor registers handlers on router, each reading from sub.
func NewProcessor(router *message.Router, sub message.Subscriber, logger watermill.LoggerAdapter, handlers ...cqrs.EventHandler) error {
	processor, err := cqrs.NewEventProcessorWithConfig(router, cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return topicPrefix + params.EventName, nil
		},
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return sub, nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create event processor: %w", err)
	}
	return processor.AddHandlers(handlers...)
}
