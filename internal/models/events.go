package models

import "time"

// Event types published to the order-events topic. The notification worker
// reacts to confirmation and cancellation; everything else is for downstream
// consumers (analytics, fulfilment).
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderConfirmed = "ORDER_CONFIRMED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypeOrderShipped   = "ORDER_SHIPPED"
	EventTypeOrderDelivered = "ORDER_DELIVERED"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published on order lifecycle changes. Amounts are formatted
// decimal strings so consumers never reparse floats.
type OrderEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	UserID        int64  `json:"user_id"`
	CustomerEmail string `json:"customer_email"`
	Status        string `json:"status"`
	TotalAmount   string `json:"total_amount"`
	RefundAmount  string `json:"refund_amount,omitempty"`
	Note          string `json:"note,omitempty"`
}
