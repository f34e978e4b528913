package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrderTx inserts the order row inside the checkout transaction.
func (s *Store) CreateOrderTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (order_number, user_id, status, subtotal, shipping_cost,
		                    tax, discount, total_amount, coupon_code, emi_plan_id,
		                    shipping_address, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.UserID, order.Status, order.Subtotal,
		order.ShippingCost, order.Tax, order.Discount, order.TotalAmount,
		order.CouponCode, order.EMIPlanID, order.ShippingAddress, order.IdempotencyKey,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// CreateOrderItemTx inserts a line item inside the checkout transaction.
func (s *Store) CreateOrderItemTx(ctx context.Context, tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, mrp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return tx.QueryRowxContext(ctx, query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.MRP,
	).Scan(&item.ID)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIDTx locks and retrieves the order row inside a transaction.
// FOR UPDATE serializes concurrent transitions on the same order.
func (s *Store) GetOrderByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatusTx moves the order status guarded by the expected current
// status. Zero rows affected means a concurrent writer got there first; the
// enclosing transaction must abort.
func (s *Store) UpdateOrderStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, from, to models.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		return fmt.Errorf("order %d no longer in status %s", orderID, from)
	}
	return nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemsTx retrieves order items inside a transaction
func (s *Store) GetOrderItemsTx(ctx context.Context, tx *sqlx.Tx, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// AppendTrackingTx appends an audit entry for a status transition.
func (s *Store) AppendTrackingTx(ctx context.Context, tx *sqlx.Tx, entry *models.OrderTracking) error {
	query := `
		INSERT INTO order_tracking (order_id, status, message, tracking_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return tx.QueryRowxContext(ctx, query,
		entry.OrderID, entry.Status, entry.Message, entry.TrackingNumber,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// GetTracking retrieves the full tracking history for an order
func (s *Store) GetTracking(ctx context.Context, orderID int64) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM order_tracking WHERE order_id = $1 ORDER BY created_at, id", orderID)
	return entries, err
}

// GetTrackingForStatus retrieves the earliest tracking entry for a status,
// used to read the time an order entered CONFIRMED.
func (s *Store) GetTrackingForStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.OrderTracking, error) {
	var entry models.OrderTracking
	err := s.db.GetContext(ctx, &entry, `
		SELECT * FROM order_tracking
		WHERE order_id = $1 AND status = $2
		ORDER BY created_at, id LIMIT 1`,
		orderID, status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreatePayment creates a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, status, method, amount, gateway_order_id, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		payment.OrderID, payment.Status, payment.Method, payment.Amount,
		payment.GatewayOrderID, payment.TransactionID,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

// GetPaymentsByOrderID retrieves all payment attempts for an order
func (s *Store) GetPaymentsByOrderID(ctx context.Context, orderID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC", orderID)
	return payments, err
}

// GetPaymentByGatewayOrderIDTx retrieves the payment row for a gateway-side
// order id, locked for update during callback verification.
func (s *Store) GetPaymentByGatewayOrderIDTx(ctx context.Context, tx *sqlx.Tx, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := tx.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE gateway_order_id = $1 FOR UPDATE", gatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for gateway order: %s", gatewayOrderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetCompletedPaymentTx retrieves the completed payment for an order, if any.
func (s *Store) GetCompletedPaymentTx(ctx context.Context, tx *sqlx.Tx, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := tx.GetContext(ctx, &payment, `
		SELECT * FROM payments
		WHERE order_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1`,
		orderID, models.PaymentStatusCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatusTx updates payment status and transaction id inside a
// transaction.
func (s *Store) UpdatePaymentStatusTx(ctx context.Context, tx *sqlx.Tx, paymentID int64, status, transactionID string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET status = $1, transaction_id = $2, updated_at = NOW() WHERE id = $3",
		status, transactionID, paymentID)
	return err
}
