package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/utils"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	log       *logger.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, log: log}
}

// Stats handles GET /dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("DASHBOARD", "Failed to compute stats: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to compute stats", err.Error()))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HourlySummary handles GET /dashboard/hourly-summary
func (h *DashboardHandler) HourlySummary(c *gin.Context) {
	points, err := h.dashboard.Hourly(c.Request.Context())
	if err != nil {
		h.log.Error("DASHBOARD", "Failed to compute hourly summary: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to compute hourly summary", err.Error()))
		return
	}
	c.JSON(http.StatusOK, points)
}

// RecentOrders handles GET /dashboard/recent-orders?limit=N
func (h *DashboardHandler) RecentOrders(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid limit", raw))
			return
		}
		limit = n
	}

	recent, err := h.dashboard.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("DASHBOARD", "Failed to list recent orders: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list recent orders", err.Error()))
		return
	}
	c.JSON(http.StatusOK, recent)
}
