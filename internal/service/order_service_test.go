package service

import (
	"strings"
	"testing"
	"time"

	"storefront-orders/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	n1 := generateOrderNumber()
	n2 := generateOrderNumber()

	assert.True(t, strings.HasPrefix(n1, "ORD-"+time.Now().Format("20060102")+"-"))
	assert.Len(t, n1, len("ORD-20060102-")+8)
	assert.NotEqual(t, n1, n2)
}

func TestOrderCreatedEvent(t *testing.T) {
	order := &models.Order{
		ID:          42,
		OrderNumber: "ORD-20260310-abcd1234",
		UserID:      7,
		Status:      models.StatusPending,
		TotalAmount: decimal.RequireFromString("522"),
	}

	event := orderCreatedEvent(order, "buyer@example.com")

	assert.Equal(t, models.EventTypeOrderCreated, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, int64(42), event.OrderID)
	assert.Equal(t, "ORD-20260310-abcd1234", event.OrderNumber)
	assert.Equal(t, int64(7), event.UserID)
	assert.Equal(t, "buyer@example.com", event.CustomerEmail)
	assert.Equal(t, "PENDING", event.Status)
	assert.Equal(t, "522.00", event.TotalAmount)
}

func TestCreateOrderIdempotency(t *testing.T) {
	// Requires a database plus a mocked redis client; covered by the store
	// integration tests and the unique idempotency_key constraint.
	t.Skip("Integration test - requires database")
}
