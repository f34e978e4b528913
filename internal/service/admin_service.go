package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/redisclient"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

const statsCacheTTL = 30 * time.Second

// AdminService is the back-office read model and status mutation entry
// point. Role checks happen at the HTTP layer; this service assumes an
// already-authorized caller.
type AdminService struct {
	store    *store.Store
	redis    *redisclient.Client
	statuses *StatusService
	cancels  *CancellationService
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store *store.Store, redis *redisclient.Client, statuses *StatusService, cancels *CancellationService) *AdminService {
	return &AdminService{
		store:    store,
		redis:    redis,
		statuses: statuses,
		cancels:  cancels,
		logger:   util.GetLogger(),
	}
}

// OrderListResult is one page of orders plus pagination info and aggregates.
type OrderListResult struct {
	Orders []store.OrderSummary `json:"orders"`
	Total  int                  `json:"total"`
	Page   int                  `json:"page"`
	Limit  int                  `json:"limit"`
	Stats  *store.OrderStats    `json:"stats"`
}

// ListOrders returns a filtered page of orders with aggregate statistics.
func (as *AdminService) ListOrders(ctx context.Context, params store.OrderListParams) (*OrderListResult, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.ListOrders")
	defer span.End()

	if params.Status != "" && !models.ValidStatus(params.Status) {
		return nil, fmt.Errorf("unknown status filter: %s", params.Status)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	orders, total, err := as.store.ListOrders(ctx, params)
	if err != nil {
		return nil, err
	}

	stats, err := as.orderStats(ctx)
	if err != nil {
		// The list is still useful without aggregates.
		as.logger.Error("Failed to compute order stats", zap.Error(err))
		stats = nil
	}

	return &OrderListResult{
		Orders: orders,
		Total:  total,
		Page:   params.Page,
		Limit:  params.Limit,
		Stats:  stats,
	}, nil
}

// orderStats serves aggregates from the Redis cache when fresh.
func (as *AdminService) orderStats(ctx context.Context) (*store.OrderStats, error) {
	if as.redis != nil {
		if data, err := as.redis.GetCachedStats(ctx); err == nil && data != nil {
			var cached store.OrderStats
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stats, err := as.store.GetOrderStats(ctx)
	if err != nil {
		return nil, err
	}

	if as.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := as.redis.SetCachedStats(ctx, data, statsCacheTTL); err != nil {
				as.logger.Warn("Failed to cache order stats", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// UpdateOrderStatus performs an admin-driven transition with an optional
// courier tracking number and note.
func (as *AdminService) UpdateOrderStatus(ctx context.Context, orderID int64, to models.OrderStatus, trackingNumber, note string) (*models.Order, *models.OrderTracking, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.UpdateOrderStatus")
	defer span.End()

	if !models.ValidStatus(to) {
		return nil, nil, fmt.Errorf("unknown status: %s", to)
	}

	return as.statuses.Transition(ctx, TransitionRequest{
		OrderID:        orderID,
		To:             to,
		Note:           note,
		TrackingNumber: trackingNumber,
	})
}

// CancelOrder is the admin cancellation path.
func (as *AdminService) CancelOrder(ctx context.Context, orderID int64, reason string) (*CancelResult, error) {
	return as.cancels.AdminCancel(ctx, orderID, reason)
}
