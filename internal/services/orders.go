package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

var (
	ErrEmptyCart       = errors.New("empty cart")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)

const recentClosedCount = 10

// OrderService owns the order lifecycle: active --close--> closed, closed is
// terminal. Every mutation pushes fresh snapshots to the "orders" channel and
// triggers a dashboard recompute.
type OrderService struct {
	store     storage.Store
	hub       *hub.Hub
	dashboard *DashboardService
	producer  *kafka.Producer
	log       *logger.Logger
	loc       *time.Location
}

func NewOrderService(store storage.Store, h *hub.Hub, dashboard *DashboardService, producer *kafka.Producer, log *logger.Logger, loc *time.Location) *OrderService {
	return &OrderService{
		store:     store,
		hub:       h,
		dashboard: dashboard,
		producer:  producer,
		log:       log,
		loc:       loc,
	}
}

func (s *OrderService) Create(ctx context.Context, in *models.OrderCreateIn) (*models.OrderOut, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	customer := strings.TrimSpace(in.CustomerName)
	if customer == "" {
		customer = "Guest"
	}

	now := time.Now().UTC()
	order := &models.Order{
		CustomerName: customer,
		TakeAway:     in.TakeAway,
		Status:       models.OrderStatusActive,
		CreatedAt:    now,
	}

	total := decimal.Zero
	for _, it := range in.Items {
		prod, err := s.store.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, it.ProductID)
			}
			return nil, err
		}

		// Unit base: the discounted price from the cart if supplied, else
		// the product's current price. The snapshot name keeps the discount
		// marker the cashier saw.
		unit := prod.BasePrice
		if it.UnitPriceBase != nil {
			unit = *it.UnitPriceBase
		}
		item := &models.OrderItem{
			ProductID:    &prod.ID,
			NameSnapshot: prod.Name + it.NameSuffix,
			Qty:          it.Qty,
		}

		if len(it.OptionItemIDs) > 0 {
			// Unknown option ids are skipped on purpose.
			opts, err := s.store.ListOptionItems(ctx, it.OptionItemIDs)
			if err != nil {
				return nil, err
			}
			for _, op := range opts {
				oid := op.ID
				item.Options = append(item.Options, &models.OrderItemOption{
					OptionItemID: &oid,
					NameSnapshot: op.Name,
					Price:        op.Price,
				})
				unit = unit.Add(op.Price)
			}
		}

		item.UnitPrice = unit
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(it.Qty))))
		order.Items = append(order.Items, item)
	}
	order.Total = total.Round(2)

	day := now.In(s.loc).Format("2006-01-02")
	seq, err := s.store.NextGuestSeq(ctx, day)
	if err != nil {
		return nil, err
	}
	order.GuestSeq = seq
	order.GuestDate = day

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("ORDER", fmt.Sprintf("Order %d created: guest #%d, total %s", order.ID, order.GuestSeq, order.Total))

	s.publishEvent("order.created", order)
	s.broadcastRefresh(ctx)
	return orderOut(order), nil
}

func (s *OrderService) List(ctx context.Context, status models.OrderStatus, limit int) ([]models.OrderOut, error) {
	orders, err := s.store.ListOrders(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	return orderOuts(orders), nil
}

// Close transitions an order to closed. Closing an already-closed order is
// idempotent and does not touch closed_at.
func (s *OrderService) Close(ctx context.Context, id int64) (*models.OrderOut, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == models.OrderStatusClosed {
		return orderOut(order), nil
	}

	now := time.Now().UTC()
	order.Status = models.OrderStatusClosed
	order.ClosedAt = &now
	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("ORDER", fmt.Sprintf("Order %d closed", order.ID))

	s.publishEvent("order.closed", order)
	s.broadcastRefresh(ctx)
	return orderOut(order), nil
}

// PurgeClosed deletes every closed order together with its items and option
// snapshots.
func (s *OrderService) PurgeClosed(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeClosedOrders(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("ORDER", fmt.Sprintf("Purged %d closed order(s)", n))

	s.publishEvent("orders.purged", &models.Order{})
	s.broadcastRefresh(ctx)
	return n, nil
}

// Feed is the combined snapshot served over HTTP before a WebSocket
// connects.
func (s *OrderService) Feed(ctx context.Context, recent int) (*models.OrdersFeed, error) {
	active, err := s.store.ListOrders(ctx, models.OrderStatusActive, 0)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.ListOrders(ctx, models.OrderStatusClosed, recent)
	if err != nil {
		return nil, err
	}
	return &models.OrdersFeed{
		Active:       orderOuts(active),
		RecentClosed: orderOuts(closed),
	}, nil
}

// broadcastRefresh pushes the full active/recent-closed snapshot to the
// "orders" channel and recomputes the dashboard. Broadcast problems never
// surface to the caller.
func (s *OrderService) broadcastRefresh(ctx context.Context) {
	feed, err := s.Feed(ctx, recentClosedCount)
	if err != nil {
		s.log.Error("ORDER", "Failed to build orders snapshot: "+err.Error())
		return
	}
	s.hub.Send("orders", models.OrdersPayload{
		Type:         "orders",
		Active:       feed.Active,
		RecentClosed: feed.RecentClosed,
	})
	s.dashboard.Push(ctx)
}

func (s *OrderService) publishEvent(eventType string, order *models.Order) {
	event := &models.OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		GuestSeq:  order.GuestSeq,
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	}
	if err := s.producer.PublishOrderEvent(event); err != nil {
		// The order is already persisted; the event stream is best effort.
		s.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for order %d: %v", eventType, order.ID, err))
	}
}

func orderOut(o *models.Order) *models.OrderOut {
	items := make([]models.OrderItemOut, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.NameSnapshot
		if len(it.Options) > 0 {
			opts := make([]string, 0, len(it.Options))
			for _, op := range it.Options {
				opts = append(opts, op.NameSnapshot)
			}
			name += " (" + strings.Join(opts, ", ") + ")"
		}
		items = append(items, models.OrderItemOut{Name: name, Quantity: it.Qty})
	}
	return &models.OrderOut{
		ID:           o.ID,
		GuestSeq:     o.GuestSeq,
		CustomerName: o.CustomerName,
		TakeAway:     o.TakeAway,
		Items:        items,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
	}
}

func orderOuts(orders []*models.Order) []models.OrderOut {
	out := make([]models.OrderOut, 0, len(orders))
	for _, o := range orders {
		out = append(out, *orderOut(o))
	}
	return out
}
