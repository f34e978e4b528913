package service

import (
	"context"
	"fmt"
	"time"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusService owns order status transitions. Every transition runs as one
// transaction: guarded status write, tracking append, and the inventory
// effect the edge carries. Notification events go out only after commit.
type StatusService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewStatusService creates a new status service
func NewStatusService(store *store.Store, eventPublisher *broker.EventPublisher) *StatusService {
	return &StatusService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// TransitionRequest describes one requested status change.
type TransitionRequest struct {
	OrderID        int64
	To             models.OrderStatus
	Note           string
	TrackingNumber string
}

// Transition moves an order to a new status. Returns the updated order and
// the freshly appended tracking entry.
func (s *StatusService) Transition(ctx context.Context, req TransitionRequest) (*models.Order, *models.OrderTracking, error) {
	ctx, span := util.StartSpan(ctx, "StatusService.Transition")
	defer span.End()

	var order *models.Order
	var entry *models.OrderTracking
	var from models.OrderStatus

	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.store.GetOrderByIDTx(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		from = locked.Status

		entry, err = s.ApplyTransition(ctx, tx, locked, req.To, req.Note, req.TrackingNumber)
		if err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	util.StatusTransitionsTotal.WithLabelValues(string(from), string(req.To)).Inc()
	s.notifyLifecycle(ctx, order, decimal.Zero, req.Note)

	return order, entry, nil
}

// ApplyTransition executes a transition inside the caller's transaction. The
// order must already be locked (GetOrderByIDTx). On return the order's
// Status field reflects the new state.
func (s *StatusService) ApplyTransition(ctx context.Context, tx *sqlx.Tx, order *models.Order, to models.OrderStatus, note, trackingNumber string) (*models.OrderTracking, error) {
	from := order.Status

	if !models.CanTransition(from, to) {
		return nil, &models.InvalidTransitionError{
			From:    from,
			To:      to,
			Allowed: models.AllowedNext(from),
		}
	}

	items, err := s.store.GetOrderItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	if err := s.applyStockEffect(ctx, tx, models.EffectFor(from, to), items); err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrderStatusTx(ctx, tx, order.ID, from, to); err != nil {
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("Order %s", statusPhrase(to))
	}
	entry := &models.OrderTracking{
		OrderID:        order.ID,
		Status:         to,
		Message:        note,
		TrackingNumber: trackingNumber,
	}
	if err := s.store.AppendTrackingTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append tracking entry: %w", err)
	}

	order.Status = to
	order.UpdatedAt = entry.CreatedAt
	return entry, nil
}

func (s *StatusService) applyStockEffect(ctx context.Context, tx *sqlx.Tx, effect models.StockEffect, items []models.OrderItem) error {
	for _, item := range items {
		var err error
		switch effect {
		case models.StockReserve:
			err = s.store.ReserveStock(ctx, tx, item.ProductID, item.Quantity)
		case models.StockRelease:
			err = s.store.ReleaseStock(ctx, tx, item.ProductID, item.Quantity)
		case models.StockCommit:
			err = s.store.CommitStock(ctx, tx, item.ProductID, item.Quantity)
		default:
			continue
		}
		if err != nil {
			if _, ok := err.(*models.InsufficientStockError); ok {
				util.InventoryReservationsFailed.WithLabelValues("insufficient_stock").Inc()
			}
			return err
		}
	}
	return nil
}

// notifyLifecycle publishes the notification event for CONFIRMED and
// CANCELLED transitions. Failures are logged, never propagated: the
// transition is already committed.
func (s *StatusService) notifyLifecycle(ctx context.Context, order *models.Order, refund decimal.Decimal, note string) {
	var eventType string
	switch order.Status {
	case models.StatusConfirmed:
		eventType = models.EventTypeOrderConfirmed
	case models.StatusCancelled:
		eventType = models.EventTypeOrderCancelled
	case models.StatusShipped:
		eventType = models.EventTypeOrderShipped
	case models.StatusDelivered:
		eventType = models.EventTypeOrderDelivered
	default:
		return
	}

	if s.eventPublisher == nil {
		return
	}

	user, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Failed to load customer for notification",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		CustomerEmail: user.Email,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Note:          note,
	}
	if refund.IsPositive() {
		event.RefundAmount = refund.StringFixed(2)
	}

	if err := s.eventPublisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.Int64("order_id", order.ID),
			zap.String("event", eventType),
			zap.Error(err))
	}
}

func statusPhrase(s models.OrderStatus) string {
	switch s {
	case models.StatusConfirmed:
		return "confirmed"
	case models.StatusProcessing:
		return "is being processed"
	case models.StatusShipped:
		return "shipped"
	case models.StatusOutForDelivery:
		return "out for delivery"
	case models.StatusDelivered:
		return "delivered"
	case models.StatusCancelled:
		return "cancelled"
	case models.StatusReturned:
		return "returned"
	case models.StatusRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("moved to %s", s)
	}
}
