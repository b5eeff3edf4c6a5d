package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/handlers"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/media"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

type memorySessions struct {
	jtis map[string]string
}

func (s *memorySessions) AddSession(ctx context.Context, jti, phone string, ttl time.Duration) error {
	s.jtis[jti] = phone
	return nil
}

func (s *memorySessions) RemoveSession(ctx context.Context, jti string) error {
	delete(s.jtis, jti)
	return nil
}

func (s *memorySessions) SessionExists(ctx context.Context, jti string) (bool, error) {
	_, ok := s.jtis[jti]
	return ok, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	if log == nil {
		log = logger.NewLogger()
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SecretKey:  "router-test-secret",
			TokenTTL:   time.Hour,
			CookieName: "access_token",
		},
		CORSOrigins: []string{"http://localhost:3000"},
	}

	store := storage.NewInMemoryStore()
	mediaStore, err := media.NewStore(config.MediaConfig{Dir: t.TempDir(), PublicURL: "/media"}, log)
	require.NoError(t, err)
	wsHub := hub.New(log)
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)

	authService := services.NewAuthService(store, &memorySessions{jtis: map[string]string{}}, log, cfg.Auth)
	catalogService := services.NewCatalogService(store, wsHub, mediaStore, log)
	dashboardService := services.NewDashboardService(store, wsHub, log, time.UTC)
	orderService := services.NewOrderService(store, wsHub, dashboardService, producer, log, time.UTC)

	return setupRouter(
		cfg,
		store,
		mediaStore,
		authService,
		handlers.NewOrderHandler(orderService, log),
		handlers.NewCatalogHandler(catalogService, mediaStore, log),
		handlers.NewDashboardHandler(dashboardService, log),
		handlers.NewAuthHandler(authService, log, cfg.Auth),
		handlers.NewWSHandler(wsHub, catalogService, log),
	)
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

// The kitchen and dashboard displays carry no credential; the read endpoints
// they bootstrap from must answer without a token.
func TestDisplayReadsServeWithoutToken(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/orders/feed",
		"/dashboard/stats",
		"/dashboard/hourly-summary",
		"/dashboard/recent-orders",
		"/products",
		"/categories",
		"/options/groups",
		"/health",
	} {
		w := get(router, path)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}

func TestMutationsRejectMissingToken(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodPatch, "/orders/1/close"},
		{http.MethodDelete, "/orders/closed"},
		{http.MethodPost, "/products"},
		{http.MethodDelete, "/categories/1"},
		{http.MethodPost, "/options/groups"},
		{http.MethodGet, "/auth/me"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}
