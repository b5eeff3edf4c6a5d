package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/handlers"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

func newOrdersRouter(t *testing.T) (*gin.Engine, *storage.InMemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger()
	store := storage.NewInMemoryStore()
	h := hub.New(log)
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	dashboard := services.NewDashboardService(store, h, log, time.UTC)
	orders := services.NewOrderService(store, h, dashboard, producer, log, time.UTC)
	handler := handlers.NewOrderHandler(orders, log)

	router := gin.New()
	router.POST("/orders", handler.CreateOrder)
	router.GET("/orders", handler.ListOrders)
	router.GET("/orders/feed", handler.Feed)
	router.PATCH("/orders/:id/close", handler.CloseOrder)
	router.DELETE("/orders/closed", handler.PurgeClosed)
	return router, store
}

func seedLatte(t *testing.T, store *storage.InMemoryStore) *models.Product {
	t.Helper()
	p := &models.Product{Name: "Latte", BasePrice: decimal.NewFromInt(1000)}
	require.NoError(t, store.CreateProduct(context.Background(), p, nil))
	return p
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	router, store := newOrdersRouter(t)
	latte := seedLatte(t, store)

	w := postJSON(router, "/orders", models.OrderCreateIn{
		CustomerName: "Aidos",
		Items:        []models.OrderItemIn{{ProductID: latte.ID, Qty: 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var out models.OrderOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 1, out.GuestSeq)
	assert.Equal(t, "Aidos", out.CustomerName)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(2000)), "total = %s", out.Total)
}

func TestCreateOrderEndpointEmptyCart(t *testing.T) {
	router, _ := newOrdersRouter(t)

	w := postJSON(router, "/orders", models.OrderCreateIn{CustomerName: "Aidos"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersEndpointRejectsBadStatus(t *testing.T) {
	router, _ := newOrdersRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=paid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseOrderEndpoint(t *testing.T) {
	router, store := newOrdersRouter(t)
	latte := seedLatte(t, store)

	w := postJSON(router, "/orders", models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var out models.OrderOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/orders/%d/close", out.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown order id comes back as 404.
	req = httptest.NewRequest(http.MethodPatch, "/orders/424242/close", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedAndPurgeEndpoints(t *testing.T) {
	router, store := newOrdersRouter(t)
	latte := seedLatte(t, store)

	w := postJSON(router, "/orders", models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var out models.OrderOut
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/orders/%d/close", out.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/orders/feed", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var feed models.OrdersFeed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Empty(t, feed.Active)
	assert.Len(t, feed.RecentClosed, 1)

	req = httptest.NewRequest(http.MethodDelete, "/orders/closed", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var ack struct {
		Success bool `json:"success"`
		Data    struct {
			Deleted int64 `json:"deleted"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, int64(1), ack.Data.Deleted)
}
