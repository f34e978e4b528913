package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderListParams are the admin listing filters.
type OrderListParams struct {
	Page          int
	Limit         int
	Status        models.OrderStatus
	PaymentStatus string
	Search        string
	From          *time.Time
	To            *time.Time
}

// OrderSummary is an order row joined with customer identity for the admin
// list view.
type OrderSummary struct {
	models.Order
	CustomerName  string `db:"customer_name" json:"customer_name"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`
}

// OrderStats are the aggregates shown alongside the admin list.
type OrderStats struct {
	CountsByStatus map[models.OrderStatus]int `json:"counts_by_status"`
	TotalRevenue   decimal.Decimal            `json:"total_revenue"`
	TodayCount     int                        `json:"today_count"`
}

// revenueStatuses are the completed-equivalent states counted as revenue.
var revenueStatuses = []models.OrderStatus{
	models.StatusConfirmed,
	models.StatusProcessing,
	models.StatusShipped,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

// ListOrders returns one page of orders matching the filters plus the total
// match count for pagination.
func (s *Store) ListOrders(ctx context.Context, params OrderListParams) ([]OrderSummary, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	var conds []string
	var args []interface{}
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if params.Status != "" {
		conds = append(conds, "o.status = "+next())
		args = append(args, params.Status)
	}
	if params.PaymentStatus != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id AND p.status = "+next()+")")
		args = append(args, params.PaymentStatus)
	}
	if params.Search != "" {
		p := next()
		conds = append(conds,
			"(o.order_number ILIKE "+p+" OR u.name ILIKE "+p+" OR u.email ILIKE "+p+")")
		args = append(args, "%"+params.Search+"%")
	}
	if params.From != nil {
		conds = append(conds, "o.created_at >= "+next())
		args = append(args, *params.From)
	}
	if params.To != nil {
		conds = append(conds, "o.created_at < "+next())
		args = append(args, *params.To)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM orders o JOIN users u ON u.id = o.user_id
		%s`, where)

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT o.*, u.name AS customer_name, u.email AS customer_email
		FROM orders o JOIN users u ON u.id = o.user_id
		%s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT %s OFFSET %s`, where, next(), fmt.Sprintf("$%d", len(args)+2))
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	var orders []OrderSummary
	if err := s.db.SelectContext(ctx, &orders, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// GetOrderStats computes per-status counts, revenue over completed-equivalent
// statuses, and today's order count.
func (s *Store) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	stats := &OrderStats{
		CountsByStatus: make(map[models.OrderStatus]int),
		TotalRevenue:   decimal.Zero,
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.CountsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]string, len(revenueStatuses))
	for i, st := range revenueStatuses {
		statuses[i] = string(st)
	}
	var revenue decimal.NullDecimal
	err = s.db.GetContext(ctx, &revenue, `
		SELECT SUM(total_amount) FROM orders
		WHERE status = ANY($1)`,
		pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	err = s.db.GetContext(ctx, &stats.TodayCount,
		"SELECT COUNT(*) FROM orders WHERE created_at >= date_trunc('day', NOW())")
	if err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}

	return stats, nil
}
