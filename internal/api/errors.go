package api

import (
	"errors"
	"net/http"

	"storefront-orders/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto the HTTP surface. Conflict errors
// carry their structured detail so the client can explain the rejection to
// the user.
func respondError(c *gin.Context, err error) {
	var insufficient *models.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "insufficient_stock",
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
			"details":    insufficient.Error(),
		})
		return
	}

	var invalidTransition *models.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invalid_transition",
			"from":    invalidTransition.From,
			"to":      invalidTransition.To,
			"allowed": invalidTransition.Allowed,
			"details": invalidTransition.Error(),
		})
		return
	}

	var cannotCancel *models.CannotCancelError
	if errors.As(err, &cannotCancel) {
		c.JSON(http.StatusConflict, gin.H{
			"error":                "cannot_cancel",
			"current_status":       cannotCancel.CurrentStatus,
			"cancellable_statuses": cannotCancel.Cancellable,
			"details":              cannotCancel.Error(),
		})
		return
	}

	var couponErr *models.CouponNotApplicableError
	if errors.As(err, &couponErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "coupon_not_applicable",
			"code":    couponErr.Code,
			"details": couponErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrSignatureMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature_mismatch"})
	case errors.Is(err, models.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "gateway_unavailable",
			"details": "payment gateway unavailable, please try again",
		})
	case errors.Is(err, models.ErrCancellationWindowExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "cancellation_window_expired"})
	case errors.Is(err, models.ErrInvalidOrderState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_order_state", "details": err.Error()})
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrCouponNotFound),
		errors.Is(err, models.ErrAddressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "details": err.Error()})
	}
}
