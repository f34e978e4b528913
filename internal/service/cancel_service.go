package service

import (
	"context"
	"fmt"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/models"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CancellationService enforces the cancellation window and computes refunds.
type CancellationService struct {
	store      *store.Store
	statuses   *StatusService
	window     time.Duration
	penaltyPct decimal.Decimal
	now        func() time.Time
	logger     *zap.Logger
}

// NewCancellationService creates a new cancellation service
func NewCancellationService(store *store.Store, statuses *StatusService, cfg config.BusinessConfig) (*CancellationService, error) {
	penalty, err := decimal.NewFromString(cfg.CancellationPenaltyPct)
	if err != nil {
		return nil, fmt.Errorf("parse cancellation penalty: %w", err)
	}
	return &CancellationService{
		store:      store,
		statuses:   statuses,
		window:     time.Duration(cfg.CancellationWindowHrs) * time.Hour,
		penaltyPct: penalty,
		now:        time.Now,
		logger:     util.GetLogger(),
	}, nil
}

// RefundAmount applies the percentage penalty to a captured payment amount,
// rounded to the currency's minor unit.
func RefundAmount(captured, penaltyPct decimal.Decimal) decimal.Decimal {
	keep := decimal.NewFromInt(100).Sub(penaltyPct)
	return captured.Mul(keep).Div(decimal.NewFromInt(100)).Round(2)
}

// withinWindow reports whether now is still inside the cancellation window
// that opened at confirmedAt. The boundary instant itself is still eligible.
func withinWindow(confirmedAt, now time.Time, window time.Duration) bool {
	return now.Sub(confirmedAt) <= window
}

// CancelResult is what a cancellation returns to the caller.
type CancelResult struct {
	Order        *models.Order
	RefundAmount decimal.Decimal
}

// Cancel is the customer-initiated path: CONFIRMED orders only, within the
// window, with the penalty applied to the refund.
func (cs *CancellationService) Cancel(ctx context.Context, orderID, userID int64, reason string) (*CancelResult, error) {
	ctx, span := util.StartSpan(ctx, "CancellationService.Cancel")
	defer span.End()

	order, err := cs.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != models.StatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed orders can be cancelled (current: %s)",
			models.ErrInvalidOrderState, order.Status)
	}

	confirmedAt := order.CreatedAt
	if entry, err := cs.store.GetTrackingForStatus(ctx, orderID, models.StatusConfirmed); err != nil {
		return nil, err
	} else if entry != nil {
		confirmedAt = entry.CreatedAt
	}

	if !withinWindow(confirmedAt, cs.now(), cs.window) {
		return nil, models.ErrCancellationWindowExpired
	}

	result, err := cs.cancelTx(ctx, orderID, models.StatusConfirmed, cs.penaltyPct, reason)
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.WithLabelValues("customer").Inc()
	cs.statuses.notifyLifecycle(ctx, result.Order, result.RefundAmount, reason)
	return result, nil
}

// AdminCancel cancels from any cancellable status without a penalty.
func (cs *CancellationService) AdminCancel(ctx context.Context, orderID int64, reason string) (*CancelResult, error) {
	ctx, span := util.StartSpan(ctx, "CancellationService.AdminCancel")
	defer span.End()

	order, err := cs.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.Cancellable(order.Status) {
		return nil, &models.CannotCancelError{
			CurrentStatus: order.Status,
			Cancellable:   models.CancellableStatuses,
		}
	}

	result, err := cs.cancelTx(ctx, orderID, order.Status, decimal.Zero, reason)
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.WithLabelValues("admin").Inc()
	cs.statuses.notifyLifecycle(ctx, result.Order, result.RefundAmount, reason)
	return result, nil
}

// cancelTx performs the cancellation in one transaction: inventory release,
// status write, tracking note with the refund amount, and refund bookkeeping
// on the completed payment if one exists.
func (cs *CancellationService) cancelTx(ctx context.Context, orderID int64, expectFrom models.OrderStatus, penaltyPct decimal.Decimal, reason string) (*CancelResult, error) {
	result := &CancelResult{RefundAmount: decimal.Zero}

	err := cs.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := cs.store.GetOrderByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		// Re-check under the lock; the eligibility read above was unlocked.
		if locked.Status != expectFrom {
			return fmt.Errorf("%w: order is %s", models.ErrInvalidOrderState, locked.Status)
		}

		payment, err := cs.store.GetCompletedPaymentTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		note := "Order cancelled"
		if reason != "" {
			note = fmt.Sprintf("Order cancelled: %s", reason)
		}
		if payment != nil {
			result.RefundAmount = RefundAmount(payment.Amount, penaltyPct)
			note = fmt.Sprintf("%s (refund %s)", note, result.RefundAmount.StringFixed(2))
		}

		if _, err := cs.statuses.ApplyTransition(ctx, tx, locked,
			models.StatusCancelled, note, ""); err != nil {
			return err
		}

		if payment != nil {
			if err := cs.store.UpdatePaymentStatusTx(ctx, tx, payment.ID,
				models.PaymentStatusRefunded, payment.TransactionID); err != nil {
				return fmt.Errorf("failed to mark payment refunded: %w", err)
			}
		}

		result.Order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.RefundAmount.IsPositive() {
		util.RefundsTotal.Inc()
		cs.logger.Info("Refund recorded",
			zap.Int64("order_id", orderID),
			zap.String("refund_amount", result.RefundAmount.StringFixed(2)))
	}
	return result, nil
}
