package service

import (
	"context"
	"fmt"
	"time"

	"storefront-orders/internal/broker"
	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// OrderService handles checkout and order reads.
type OrderService struct {
	store   *store.Store
	redis   *redisclient.Client
	pricing *Pricing
	events  *broker.EventPublisher
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, redis *redisclient.Client, pricing *Pricing, events *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:   store,
		redis:   redis,
		pricing: pricing,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// CreateOrderRequest represents a checkout submission.
type CreateOrderRequest struct {
	UserID            int64
	ShippingAddressID int64              `json:"shipping_address_id" binding:"required"`
	PaymentMethod     string             `json:"payment_method" binding:"required"`
	CouponCode        string             `json:"coupon_code,omitempty"`
	EMIPlanID         *int64             `json:"emi_plan_id,omitempty"`
	Items             []OrderItemRequest `json:"items" binding:"required,min=1"`
	IdempotencyKey    string             `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// OrderDetail is an order with its child rows.
type OrderDetail struct {
	Order    *models.Order          `json:"order"`
	Items    []models.OrderItem     `json:"items"`
	Tracking []models.OrderTracking `json:"tracking,omitempty"`
	Payments []models.Payment       `json:"payments,omitempty"`
}

// CreateOrder prices the cart and creates the order in PENDING status.
// Inventory is not touched yet: reservation happens on PENDING -> CONFIRMED
// once payment is verified.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existing.ID))
		items, err := s.store.GetOrderItems(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return &OrderDetail{Order: existing, Items: items}, nil
	}

	// Best-effort guard against near-simultaneous double submits; the unique
	// idempotency_key column is the backstop.
	if s.redis != nil {
		acquired, err := s.redis.AcquireIdempotency(ctx, req.IdempotencyKey, 24*time.Hour)
		if err != nil {
			s.logger.Warn("Idempotency guard unavailable", zap.Error(err))
		} else if !acquired {
			return nil, fmt.Errorf("duplicate request for idempotency key %s is in flight", req.IdempotencyKey)
		}
	}

	products, err := s.validateItems(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	address, err := s.store.GetAddressByID(ctx, req.ShippingAddressID, req.UserID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_address").Inc()
		return nil, err
	}

	priced := make([]PricedItem, len(req.Items))
	for i, item := range req.Items {
		priced[i] = PricedItem{Price: products[item.ProductID].Price, Quantity: item.Quantity}
	}

	var coupon *models.Coupon
	if req.CouponCode != "" {
		coupon, err = s.store.GetCouponByCode(ctx, req.CouponCode)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("invalid_coupon").Inc()
			return nil, err
		}
		if err := s.pricing.ValidateCoupon(coupon, s.pricing.Subtotal(priced), time.Now()); err != nil {
			util.OrdersFailedTotal.WithLabelValues("invalid_coupon").Inc()
			return nil, err
		}
	}

	totals := s.pricing.ComputeTotals(priced, coupon)

	order := &models.Order{
		OrderNumber:     generateOrderNumber(),
		UserID:          req.UserID,
		Status:          models.StatusPending,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.Shipping,
		Tax:             totals.Tax,
		Discount:        totals.Discount,
		TotalAmount:     totals.Total,
		CouponCode:      req.CouponCode,
		EMIPlanID:       req.EMIPlanID,
		ShippingAddress: models.SnapshotAddress(address),
		IdempotencyKey:  req.IdempotencyKey,
	}

	var items []models.OrderItem
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.store.CreateOrderTx(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range req.Items {
			product := products[item.ProductID]
			orderItem := models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				MRP:       product.MRP,
			}
			if err := s.store.CreateOrderItemTx(ctx, tx, &orderItem); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			items = append(items, orderItem)
		}

		entry := &models.OrderTracking{
			OrderID: order.ID,
			Status:  models.StatusPending,
			Message: "Order placed, awaiting payment",
		}
		return s.store.AppendTrackingTx(ctx, tx, entry)
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		if s.redis != nil {
			_ = s.redis.ReleaseIdempotency(ctx, req.IdempotencyKey)
		}
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	s.notifyCreated(ctx, order)

	return &OrderDetail{Order: order, Items: items}, nil
}

// notifyCreated publishes ORDER_CREATED after the checkout transaction
// commits. Fire-and-forget: failures are logged, never surfaced.
func (s *OrderService) notifyCreated(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}

	user, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Failed to load customer for order event",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	if err := s.events.PublishOrderEvent(ctx, orderCreatedEvent(order, user.Email)); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.Int64("order_id", order.ID),
			zap.String("event", models.EventTypeOrderCreated),
			zap.Error(err))
	}
}

// orderCreatedEvent builds the ORDER_CREATED payload for a freshly placed
// order.
func orderCreatedEvent(order *models.Order, customerEmail string) *models.OrderEvent {
	return &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		CustomerEmail: customerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount.StringFixed(2),
	}
}

// validateItems checks every referenced product exists and returns the
// current catalog rows for price snapshotting.
func (s *OrderService) validateItems(ctx context.Context, items []OrderItemRequest) (map[int64]*models.Product, error) {
	productIDs := make([]int64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for _, item := range items {
		if _, ok := productMap[item.ProductID]; !ok {
			return nil, fmt.Errorf("product not found: %d", item.ProductID)
		}
	}
	return productMap, nil
}

// GetOrder retrieves an order with items, tracking, and payments. A non-zero
// userID restricts access to the owner.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID int64) (*OrderDetail, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tracking, err := s.store.GetTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.GetPaymentsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Items: items, Tracking: tracking, Payments: payments}, nil
}

// ListUserOrders retrieves a customer's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().Format("20060102"),
		uuid.New().String()[:8])
}
