package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

// PaymentService creates gateway payment intents and verifies signed
// callbacks.
type PaymentService struct {
	store    *store.Store
	statuses *StatusService
	gateway  Gateway
	keyID    string
	secret   string
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *store.Store, statuses *StatusService, gateway Gateway, cfg config.GatewayConfig) *PaymentService {
	return &PaymentService{
		store:    store,
		statuses: statuses,
		gateway:  gateway,
		keyID:    cfg.KeyID,
		secret:   cfg.Secret,
		currency: cfg.Currency,
		logger:   util.GetLogger(),
	}
}

// PaymentIntent is the client-facing handle for completing payment.
type PaymentIntent struct {
	GatewayOrderID string          `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
}

// CreateIntent asks the gateway for a payment intent and records a PENDING
// payment attempt. A gateway failure leaves the order PENDING and retryable;
// nothing is rolled back.
func (ps *PaymentService) CreateIntent(ctx context.Context, orderID int64, method string) (*PaymentIntent, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateIntent")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: payment can only start on a pending order (current: %s)",
			models.ErrInvalidOrderState, order.Status)
	}

	amountMinor := order.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	start := time.Now()
	gatewayOrderID, err := ps.gateway.CreateOrder(ctx, amountMinor, ps.currency, order.OrderNumber)
	util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentIntentsTotal.WithLabelValues("gateway_error").Inc()
		ps.logger.Error("Gateway intent creation failed",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		Status:         models.PaymentStatusPending,
		Method:         method,
		Amount:         order.TotalAmount,
		GatewayOrderID: gatewayOrderID,
	}
	if err := ps.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	util.PaymentIntentsTotal.WithLabelValues("created").Inc()
	ps.logger.Info("Payment intent created",
		zap.Int64("order_id", order.ID),
		zap.String("gateway_order_id", gatewayOrderID))

	return &PaymentIntent{
		GatewayOrderID: gatewayOrderID,
		Amount:         order.TotalAmount,
		Currency:       ps.currency,
		KeyID:          ps.keyID,
	}, nil
}

// VerifyRequest carries the gateway callback fields.
type VerifyRequest struct {
	OrderID          int64
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifyCallback checks the callback signature and, on first success,
// completes the payment and confirms the order in one transaction. Replays
// of a valid callback are no-ops: inventory is reserved exactly once.
func (ps *PaymentService) VerifyCallback(ctx context.Context, req VerifyRequest) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyCallback")
	defer span.End()

	if !verifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, ps.secret) {
		util.PaymentVerificationsTotal.WithLabelValues("signature_mismatch").Inc()
		ps.logger.Warn("Payment signature mismatch",
			zap.Int64("order_id", req.OrderID),
			zap.String("gateway_order_id", req.GatewayOrderID))
		return models.ErrSignatureMismatch
	}

	var order *models.Order
	err := ps.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := ps.store.GetOrderByIDTx(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}

		// Replay of an already-verified callback: succeed without touching
		// anything.
		if locked.Status == models.StatusConfirmed {
			return nil
		}
		if locked.Status != models.StatusPending {
			return fmt.Errorf("%w: order is %s", models.ErrInvalidOrderState, locked.Status)
		}

		payment, err := ps.store.GetPaymentByGatewayOrderIDTx(ctx, tx, req.GatewayOrderID)
		if err != nil {
			return err
		}
		if payment.OrderID != locked.ID {
			return fmt.Errorf("%w: payment belongs to a different order", models.ErrSignatureMismatch)
		}

		if err := ps.store.UpdatePaymentStatusTx(ctx, tx, payment.ID,
			models.PaymentStatusCompleted, req.GatewayPaymentID); err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}

		if _, err := ps.statuses.ApplyTransition(ctx, tx, locked,
			models.StatusConfirmed, "Payment verified", ""); err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		util.PaymentVerificationsTotal.WithLabelValues("failed").Inc()
		return err
	}

	util.PaymentVerificationsTotal.WithLabelValues("verified").Inc()

	if order != nil {
		util.OrdersConfirmedTotal.Inc()
		ps.statuses.notifyLifecycle(ctx, order, decimal.Zero, "")
		ps.logger.Info("Order confirmed",
			zap.Int64("order_id", order.ID),
			zap.String("gateway_payment_id", req.GatewayPaymentID))
	}
	return nil
}

// computeSignature is the HMAC-SHA256 of "<gatewayOrderID>|<gatewayPaymentID>"
// under the shared gateway secret, hex-encoded.
func computeSignature(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares in constant time; a plain == would leak timing.
func verifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := computeSignature(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
