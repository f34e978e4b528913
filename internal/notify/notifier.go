package notify

import (
	"context"

	"storefront-orders/internal/models"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

// Notifier is the transactional-email collaborator boundary. Delivery is
// fire-and-forget: callers log failures and move on.
type Notifier interface {
	SendOrderEmail(ctx context.Context, event *models.OrderEvent) error
}

// LogNotifier stands in for the real email provider. It records what would
// have been sent; swapping in an SMTP/provider-backed implementation is a
// wiring change only.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: util.GetLogger()}
}

func (n *LogNotifier) SendOrderEmail(ctx context.Context, event *models.OrderEvent) error {
	n.logger.Info("Sending order email",
		zap.String("to", event.CustomerEmail),
		zap.String("event", event.EventType),
		zap.String("order_number", event.OrderNumber),
		zap.String("total_amount", event.TotalAmount),
		zap.String("refund_amount", event.RefundAmount))
	return nil
}
