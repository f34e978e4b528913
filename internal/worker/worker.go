package worker

import (
	"context"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/models"
	"storefront-orders/internal/notify"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order events and hands confirmation and
// cancellation notices to the email collaborator. Send failures are logged,
// never retried against order state: the transition already committed.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	notifier     notify.Notifier
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, notifier notify.Notifier) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	send := func(ctx context.Context, event *models.OrderEvent) error {
		if err := notifier.SendOrderEmail(ctx, event); err != nil {
			logger.Error("Failed to send order email",
				zap.Int64("order_id", event.OrderID),
				zap.String("event", event.EventType),
				zap.Error(err))
		}
		return nil
	}
	eventHandler.On(models.EventTypeOrderConfirmed, send)
	eventHandler.On(models.EventTypeOrderCancelled, send)

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		notifier:     notifier,
		logger:       logger,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
