package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
)

// WSHandler upgrades the four live channels. Clients only ever read; the
// server pushes full snapshots whenever the underlying data changes.
type WSHandler struct {
	hub      *hub.Hub
	catalog  *services.CatalogService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, catalog *services.CatalogService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:     h,
		catalog: catalog,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the frontend origin; CORS for
			// the REST API is enforced separately.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Orders handles GET /orders/ws. No initial push; clients bootstrap from
// GET /orders/feed and then listen.
func (h *WSHandler) Orders(c *gin.Context) {
	h.serve(c, "orders", nil)
}

// Products handles GET /products/ws
func (h *WSHandler) Products(c *gin.Context) {
	h.serve(c, "products", func(ctx context.Context) (interface{}, error) {
		return h.catalog.ProductsSnapshot(ctx)
	})
}

// Options handles GET /options/ws
func (h *WSHandler) Options(c *gin.Context) {
	h.serve(c, "options", func(ctx context.Context) (interface{}, error) {
		return h.catalog.OptionsSnapshot(ctx)
	})
}

// Dashboard handles GET /dashboard/ws. Joins silently; the first payload
// arrives with the next order mutation.
func (h *WSHandler) Dashboard(c *gin.Context) {
	h.serve(c, "dashboard", nil)
}

// serve upgrades the connection, registers it on the channel (delivering the
// initial snapshot atomically with the join when the channel has one) and
// then blocks reading until the client goes away. Incoming messages are
// discarded.
func (h *WSHandler) serve(c *gin.Context, channel string, snapshot func(ctx context.Context) (interface{}, error)) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("HUB", "WebSocket upgrade failed on "+channel+": "+err.Error())
		return
	}
	defer conn.Close()

	if snapshot != nil {
		snap, err := snapshot(c.Request.Context())
		if err != nil {
			h.log.Error("HUB", "Failed to build initial "+channel+" snapshot: "+err.Error())
			return
		}
		if err := h.hub.JoinWithSnapshot(channel, conn, snap); err != nil {
			h.log.Error("HUB", "Failed to deliver initial "+channel+" snapshot: "+err.Error())
			return
		}
	} else {
		h.hub.Join(channel, conn)
	}
	defer h.hub.Leave(channel, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
