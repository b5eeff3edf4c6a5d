package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

func seedOrder(t *testing.T, store *storage.InMemoryStore, createdAt time.Time, total int64, guestSeq int) {
	t.Helper()
	err := store.CreateOrder(context.Background(), &models.Order{
		CustomerName: "Guest",
		Status:       models.OrderStatusActive,
		GuestSeq:     guestSeq,
		Total:        decimal.NewFromInt(total),
		CreatedAt:    createdAt.UTC(),
	})
	require.NoError(t, err)
}

func TestStatsUsesLocalDayBoundaries(t *testing.T) {
	// A shop five hours behind UTC: late-evening local orders land on the
	// next UTC calendar date but must still count toward the local day.
	loc := time.FixedZone("UTC-5", -5*3600)
	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	dash := services.NewDashboardService(store, hub.New(log), log, loc)

	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// One order well inside today, one an hour before local midnight.
	seedOrder(t, store, dayStart.Add(time.Hour), 1500, 1)
	seedOrder(t, store, dayStart.Add(-time.Hour), 999, 1)

	stats, err := dash.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DayOrders)
	assert.True(t, stats.DaySales.Equal(decimal.NewFromInt(1500)), "day sales = %s", stats.DaySales)
	assert.GreaterOrEqual(t, stats.MonthOrders, stats.DayOrders)
}

func TestHourlyBucketsByLocalHour(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	dash := services.NewDashboardService(store, hub.New(log), log, loc)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	// 03:30 UTC is 09:30 local; both orders share the 9 o'clock bucket.
	seedOrder(t, store, day.Add(3*time.Hour+30*time.Minute), 1000, 1)
	seedOrder(t, store, day.Add(3*time.Hour+45*time.Minute), 1200, 2)
	// 10:15 UTC is 16:15 local.
	seedOrder(t, store, day.Add(10*time.Hour+15*time.Minute), 800, 3)

	points, err := dash.Hourly(context.Background())
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, models.HourPoint{Hour: 9, Orders: 2}, points[0])
	assert.Equal(t, models.HourPoint{Hour: 16, Orders: 1}, points[1])
}

func TestRecentExposesGuestSeq(t *testing.T) {
	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	dash := services.NewDashboardService(store, hub.New(log), log, time.UTC)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedOrder(t, store, base, 1000, 7)
	seedOrder(t, store, base.Add(time.Minute), 1200, 8)
	seedOrder(t, store, base.Add(2*time.Minute), 800, 9)

	recent, err := dash.Recent(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, recent, 2)
	assert.Equal(t, 9, recent[0].ID)
	assert.Equal(t, 8, recent[1].ID)
}

func TestPushBroadcastsDashboardSnapshot(t *testing.T) {
	store := storage.NewInMemoryStore()
	log := logger.NewLogger()
	h := hub.New(log)
	dash := services.NewDashboardService(store, h, log, time.UTC)

	conn := &fakeConn{}
	h.Join("dashboard", conn)

	seedOrder(t, store, time.Now().UTC(), 2300, 1)
	dash.Push(context.Background())

	require.Equal(t, 1, conn.count())

	var payload models.DashboardPayload
	require.NoError(t, json.Unmarshal(conn.messages[0], &payload))
	assert.Equal(t, "dashboard", payload.Type)
	assert.Equal(t, 1, payload.Stats.DayOrders)
	require.Len(t, payload.Recent, 1)
	assert.Equal(t, 1, payload.Recent[0].ID)
}
