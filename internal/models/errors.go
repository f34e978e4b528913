package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra detail.
var (
	// ErrSignatureMismatch means a gateway callback failed HMAC verification.
	// Treated as potentially adversarial: nothing is mutated.
	ErrSignatureMismatch = errors.New("payment signature mismatch")

	// ErrGatewayUnavailable means the payment gateway call failed; the order
	// stays PENDING and the caller may retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrCancellationWindowExpired means the order was confirmed more than
	// the allowed window ago.
	ErrCancellationWindowExpired = errors.New("cancellation window expired")

	// ErrInvalidOrderState means the operation does not apply to the order's
	// current status (e.g. customer cancel on a non-CONFIRMED order).
	ErrInvalidOrderState = errors.New("invalid order state for this operation")

	// ErrOrderNotFound / ErrNotFound family.
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrAddressNotFound = errors.New("address not found")
)

// InsufficientStockError reports a failed reservation with the availability
// the caller can show to the user.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available=%d, requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// InvalidTransitionError reports an illegal status change and the set of
// legal alternatives.
type InvalidTransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Allowed []OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// CannotCancelError reports an admin cancel attempt on a non-cancellable
// order.
type CannotCancelError struct {
	CurrentStatus OrderStatus
	Cancellable   []OrderStatus
}

func (e *CannotCancelError) Error() string {
	return fmt.Sprintf("cannot cancel order in status %s (cancellable: %v)",
		e.CurrentStatus, e.Cancellable)
}

// CouponNotApplicableError reports a coupon rejected before pricing runs.
type CouponNotApplicableError struct {
	Code   string
	Reason string
}

func (e *CouponNotApplicableError) Error() string {
	return fmt.Sprintf("coupon %s not applicable: %s", e.Code, e.Reason)
}
