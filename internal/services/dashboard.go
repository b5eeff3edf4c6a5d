package services

import (
	"context"
	"sort"
	"time"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

// DashboardService computes read-side sales aggregates against the shop's
// configured timezone, never UTC and never the server's local zone.
type DashboardService struct {
	store storage.Store
	hub   *hub.Hub
	log   *logger.Logger
	loc   *time.Location
}

func NewDashboardService(store storage.Store, h *hub.Hub, log *logger.Logger, loc *time.Location) *DashboardService {
	return &DashboardService{store: store, hub: h, log: log, loc: loc}
}

func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now().In(s.loc)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	daySales, dayCount, err := s.store.SumOrdersBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	monthSales, monthCount, err := s.store.SumOrdersBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		DaySales:    daySales,
		MonthSales:  monthSales,
		DayOrders:   dayCount,
		MonthOrders: monthCount,
	}, nil
}

// Hourly counts orders per local hour of day. Hours without orders are
// omitted.
func (s *DashboardService) Hourly(ctx context.Context) ([]models.HourPoint, error) {
	times, err := s.store.OrderCreationTimes(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, t := range times {
		counts[t.In(s.loc).Hour()]++
	}

	points := make([]models.HourPoint, 0, len(counts))
	for h, n := range counts {
		points = append(points, models.HourPoint{Hour: h, Orders: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Hour < points[j].Hour })
	return points, nil
}

// Recent returns the latest orders, identified by their daily guest number.
func (s *DashboardService) Recent(ctx context.Context, limit int) ([]models.RecentOrder, error) {
	orders, err := s.store.RecentOrders(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.RecentOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, models.RecentOrder{
			ID:           o.GuestSeq,
			CustomerName: o.CustomerName,
			Total:        o.Total,
			CreatedAt:    o.CreatedAt,
		})
	}
	return out, nil
}

// Snapshot bundles stats, hourly buckets and recent orders into the payload
// the "dashboard" channel carries.
func (s *DashboardService) Snapshot(ctx context.Context) (*models.DashboardPayload, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	hourly, err := s.Hourly(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &models.DashboardPayload{
		Type:   "dashboard",
		Stats:  *stats,
		Hourly: hourly,
		Recent: recent,
	}, nil
}

// Push recomputes everything and broadcasts it to the "dashboard" channel.
func (s *DashboardService) Push(ctx context.Context) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		s.log.Error("DASHBOARD", "Failed to build dashboard snapshot: "+err.Error())
		return
	}
	s.hub.Send("dashboard", *snap)
}
