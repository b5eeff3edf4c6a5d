package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/utils"
)

type OrderHandler struct {
	orders *services.OrderService
	log    *logger.Logger
}

func NewOrderHandler(orders *services.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.OrderCreateIn
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	order, err := h.orders.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Order must contain at least one item", ""))
		case errors.Is(err, services.ErrProductNotFound):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Unknown product in order", err.Error()))
		default:
			h.log.Error("ORDERS", "Failed to create order: "+err.Error())
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /orders?status=active|closed&limit=N
func (h *OrderHandler) ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.DefaultQuery("status", string(models.OrderStatusActive)))
	if status != models.OrderStatusActive && status != models.OrderStatusClosed {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid status filter", "expected active or closed"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid limit", raw))
			return
		}
		limit = n
	}

	orders, err := h.orders.List(c.Request.Context(), status, limit)
	if err != nil {
		h.log.Error("ORDERS", "Failed to list orders: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list orders", err.Error()))
		return
	}

	c.JSON(http.StatusOK, orders)
}

// CloseOrder handles PATCH /orders/:id/close
func (h *OrderHandler) CloseOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid order ID", c.Param("id")))
		return
	}

	order, err := h.orders.Close(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Order not found", ""))
			return
		}
		h.log.Error("ORDERS", "Failed to close order: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to close order", err.Error()))
		return
	}

	c.JSON(http.StatusOK, order)
}

// PurgeClosed handles DELETE /orders/closed
func (h *OrderHandler) PurgeClosed(c *gin.Context) {
	deleted, err := h.orders.PurgeClosed(c.Request.Context())
	if err != nil {
		h.log.Error("ORDERS", "Failed to purge closed orders: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to purge closed orders", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse(
		fmt.Sprintf("Deleted %d closed orders", deleted),
		gin.H{"deleted": deleted},
	))
}

// Feed handles GET /orders/feed
func (h *OrderHandler) Feed(c *gin.Context) {
	feed, err := h.orders.Feed(c.Request.Context(), 10)
	if err != nil {
		h.log.Error("ORDERS", "Failed to build orders feed: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to build orders feed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, feed)
}
