package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item. The core only reads price and MRP;
// catalog CRUD lives elsewhere.
type Product struct {
	ID        int64           `db:"id" json:"id"`
	SKU       string          `db:"sku" json:"sku"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	MRP       decimal.Decimal `db:"mrp" json:"mrp"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Inventory represents per-product stock. Quantity is units physically held,
// Reserved is units committed to unfulfilled orders. Sellable stock is
// quantity - reserved; the store guarantees 0 <= reserved <= quantity.
type Inventory struct {
	ProductID         int64     `db:"product_id" json:"product_id"`
	Quantity          int       `db:"quantity" json:"quantity"`
	Reserved          int       `db:"reserved" json:"reserved"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Available returns sellable stock.
func (i *Inventory) Available() int {
	return i.Quantity - i.Reserved
}

// User is the minimal identity the core needs: display name and email for
// admin search and notifications. Authentication is an external concern.
type User struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Role  string `db:"role" json:"role"`
}

// Address is a saved customer address. Orders copy it at checkout time; later
// edits never touch past orders.
type Address struct {
	ID         int64  `db:"id" json:"id"`
	UserID     int64  `db:"user_id" json:"user_id"`
	Name       string `db:"name" json:"name"`
	Phone      string `db:"phone" json:"phone"`
	Line1      string `db:"line1" json:"line1"`
	Line2      string `db:"line2" json:"line2"`
	City       string `db:"city" json:"city"`
	State      string `db:"state" json:"state"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	Country    string `db:"country" json:"country"`
}

// ShippingAddress is the snapshot stored on the order row as JSON.
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported shipping address column type %T", src)
	}
}

// SnapshotAddress copies a saved address into an order-bound snapshot.
func SnapshotAddress(a *Address) ShippingAddress {
	return ShippingAddress{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// Order is the aggregate root. TotalAmount = Subtotal + ShippingCost + Tax -
// Discount at creation time and is never recomputed afterwards.
type Order struct {
	ID              int64           `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Status          OrderStatus     `db:"status" json:"status"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost    decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	Tax             decimal.Decimal `db:"tax" json:"tax"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	CouponCode      string          `db:"coupon_code" json:"coupon_code,omitempty"`
	EMIPlanID       *int64          `db:"emi_plan_id" json:"emi_plan_id,omitempty"`
	ShippingAddress ShippingAddress `db:"shipping_address" json:"shipping_address"`
	IdempotencyKey  string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line item with prices snapshotted at order time.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	MRP       decimal.Decimal `db:"mrp" json:"mrp"`
}

// OrderTracking is one append-only audit entry per status transition.
type OrderTracking struct {
	ID             int64       `db:"id" json:"id"`
	OrderID        int64       `db:"order_id" json:"order_id"`
	Status         OrderStatus `db:"status" json:"status"`
	Message        string      `db:"message" json:"message,omitempty"`
	TrackingNumber string      `db:"tracking_number" json:"tracking_number,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Payment is one payment attempt against an order.
type Payment struct {
	ID             int64           `db:"id" json:"id"`
	OrderID        int64           `db:"order_id" json:"order_id"`
	Status         string          `db:"status" json:"status"`
	Method         string          `db:"method" json:"method"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	GatewayOrderID string          `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	TransactionID  string          `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Payment statuses
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Coupon types
const (
	CouponPercentage   = "PERCENTAGE"
	CouponFixedAmount  = "FIXED_AMOUNT"
	CouponFreeShipping = "FREE_SHIPPING"
)

// Coupon is applied read-only at checkout; usage bookkeeping is external.
type Coupon struct {
	ID                int64               `db:"id" json:"id"`
	Code              string              `db:"code" json:"code"`
	Type              string              `db:"type" json:"type"`
	Value             decimal.Decimal     `db:"value" json:"value"`
	MinOrderAmount    decimal.NullDecimal `db:"min_order_amount" json:"min_order_amount,omitempty"`
	MaxDiscountAmount decimal.NullDecimal `db:"max_discount_amount" json:"max_discount_amount,omitempty"`
	ExpiresAt         *time.Time          `db:"expires_at" json:"expires_at,omitempty"`
}

// Expired reports whether the coupon is past its expiry, if any.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
