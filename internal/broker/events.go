package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes order lifecycle events. Publishing is
// fire-and-forget from the caller's point of view: failures are logged by
// the caller, never propagated into the triggering transaction.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes a lifecycle event keyed by order id.
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed order events to registered callbacks.
type EventHandler struct {
	logger       *zap.Logger
	onOrderEvent map[string]func(context.Context, *models.OrderEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		logger:       util.GetLogger(),
		onOrderEvent: make(map[string]func(context.Context, *models.OrderEvent) error),
	}
}

// On registers a handler for one event type.
func (eh *EventHandler) On(eventType string, handler func(context.Context, *models.OrderEvent) error) {
	eh.onOrderEvent[eventType] = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	handler, ok := eh.onOrderEvent[base.EventType]
	if !ok {
		eh.logger.Debug("Unhandled event type", zap.String("type", base.EventType))
		return nil
	}

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	return handler(ctx, &event)
}
