package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-orders/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondErrorInsufficientStock(t *testing.T) {
	w, body := recordError(t, &models.InsufficientStockError{
		ProductID: 42,
		Available: 3,
		Requested: 5,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", body["error"])
	assert.Equal(t, float64(42), body["product_id"])
	assert.Equal(t, float64(3), body["available"])
	assert.Equal(t, float64(5), body["requested"])
}

func TestRespondErrorInvalidTransition(t *testing.T) {
	w, body := recordError(t, &models.InvalidTransitionError{
		From:    models.StatusDelivered,
		To:      models.StatusProcessing,
		Allowed: models.AllowedNext(models.StatusDelivered),
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", body["error"])
	assert.Equal(t, "DELIVERED", body["from"])
	assert.Equal(t, "PROCESSING", body["to"])
	assert.Equal(t, []interface{}{"RETURNED"}, body["allowed"])
}

func TestRespondErrorCannotCancel(t *testing.T) {
	w, body := recordError(t, &models.CannotCancelError{
		CurrentStatus: models.StatusShipped,
		Cancellable:   models.CancellableStatuses,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot_cancel", body["error"])
	assert.Equal(t, "SHIPPED", body["current_status"])
}

func TestRespondErrorCouponNotApplicable(t *testing.T) {
	w, body := recordError(t, &models.CouponNotApplicableError{
		Code:   "MIN500",
		Reason: "order subtotal below minimum of 500",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "coupon_not_applicable", body["error"])
	assert.Equal(t, "MIN500", body["code"])
}

func TestRespondErrorSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
		name string
	}{
		{models.ErrSignatureMismatch, http.StatusUnauthorized, "signature_mismatch"},
		{models.ErrGatewayUnavailable, http.StatusBadGateway, "gateway_unavailable"},
		{models.ErrCancellationWindowExpired, http.StatusConflict, "cancellation_window_expired"},
		{models.ErrInvalidOrderState, http.StatusConflict, "invalid_order_state"},
		{models.ErrOrderNotFound, http.StatusNotFound, "not_found"},
		{models.ErrCouponNotFound, http.StatusNotFound, "not_found"},
		{models.ErrAddressNotFound, http.StatusNotFound, "not_found"},
	}

	for _, tc := range cases {
		w, body := recordError(t, tc.err)
		assert.Equal(t, tc.code, w.Code, "%v", tc.err)
		assert.Equal(t, tc.name, body["error"], "%v", tc.err)
	}
}

func TestRespondErrorWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("%w: order is SHIPPED", models.ErrInvalidOrderState)
	w, body := recordError(t, wrapped)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_order_state", body["error"])
}

func TestRespondErrorUnknownError(t *testing.T) {
	w, body := recordError(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body["error"])
}
