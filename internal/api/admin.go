package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-orders/internal/models"
	"storefront-orders/internal/store"

	"github.com/gin-gonic/gin"
)

// adminListOrders returns a filtered, paginated order list with aggregates.
func (h *Handler) adminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := store.OrderListParams{
		Page:          page,
		Limit:         limit,
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: c.Query("payment_status"),
		Search:        c.Query("search"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp"})
			return
		}
		params.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp"})
			return
		}
		params.To = &t
	}

	result, err := h.admin.ListOrders(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// adminUpdateStatus performs a status transition with an optional courier
// tracking number.
func (h *Handler) adminUpdateStatus(c *gin.Context) {
	var req struct {
		OrderID        int64  `json:"order_id" binding:"required"`
		Status         string `json:"status" binding:"required"`
		TrackingNumber string `json:"tracking_number,omitempty"`
		Notes          string `json:"notes,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, tracking, err := h.admin.UpdateOrderStatus(c.Request.Context(),
		req.OrderID, models.OrderStatus(req.Status), req.TrackingNumber, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":    order,
		"tracking": tracking,
	})
}

// adminCancelOrder cancels an order from any still-cancellable status.
func (h *Handler) adminCancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	result, err := h.admin.CancelOrder(c.Request.Context(), orderID, c.Query("reason"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":         result.Order,
		"refund_amount": result.RefundAmount,
	})
}
