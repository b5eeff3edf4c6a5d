package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/kafka"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

// fakeConn records hub frames for assertions.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

type ordersFixture struct {
	store  *storage.InMemoryStore
	hub    *hub.Hub
	orders *services.OrderService
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	log := logger.NewLogger()
	store := storage.NewInMemoryStore()
	h := hub.New(log)
	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)
	dashboard := services.NewDashboardService(store, h, log, time.UTC)
	orders := services.NewOrderService(store, h, dashboard, producer, log, time.UTC)
	return &ordersFixture{store: store, hub: h, orders: orders}
}

func (f *ordersFixture) seedProduct(t *testing.T, name string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, BasePrice: decimal.NewFromInt(price)}
	require.NoError(t, f.store.CreateProduct(context.Background(), p, nil))
	return p
}

func (f *ordersFixture) seedOption(t *testing.T, group string, name string, price int64) *models.OptionItem {
	t.Helper()
	ctx := context.Background()
	g := &models.OptionGroup{Name: group, SelectType: models.SelectSingle}
	require.NoError(t, f.store.CreateOptionGroup(ctx, g))
	it := &models.OptionItem{GroupID: g.ID, Name: name, Price: decimal.NewFromInt(price)}
	require.NoError(t, f.store.CreateOptionItem(ctx, it))
	return it
}

func TestCreateOrderTotalsWithOptions(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)
	syrup := f.seedOption(t, "Syrup", "Caramel", 150)

	out, err := f.orders.Create(ctx, &models.OrderCreateIn{
		CustomerName: "Aidos",
		Items: []models.OrderItemIn{
			{ProductID: latte.ID, Qty: 2, OptionItemIDs: []int64{syrup.ID}},
		},
	})
	require.NoError(t, err)

	// Unit 1000 + 150, two cups.
	assert.True(t, out.Total.Equal(decimal.NewFromInt(2300)), "total = %s", out.Total)
	assert.Equal(t, 1, out.GuestSeq)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Latte (Caramel)", out.Items[0].Name)
	assert.Equal(t, 2, out.Items[0].Quantity)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.orders.Create(context.Background(), &models.OrderCreateIn{CustomerName: "Aidos"})
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.orders.Create(context.Background(), &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: 999, Qty: 1}},
	})
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestCreateOrderSkipsUnknownOptions(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	out, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{
			{ProductID: latte.ID, Qty: 1, OptionItemIDs: []int64{12345}},
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(1000)), "total = %s", out.Total)
	assert.Equal(t, "Latte", out.Items[0].Name)
}

func TestCreateOrderDiscountOverride(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	discounted := decimal.NewFromInt(800)
	out, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{
			{ProductID: latte.ID, Qty: 1, UnitPriceBase: &discounted, NameSuffix: " (-20%)"},
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(800)), "total = %s", out.Total)
	assert.Equal(t, "Latte (-20%)", out.Items[0].Name)
}

func TestCreateOrderDefaultsCustomerName(t *testing.T) {
	f := newOrdersFixture(t)
	latte := f.seedProduct(t, "Latte", 1000)

	out, err := f.orders.Create(context.Background(), &models.OrderCreateIn{
		CustomerName: "   ",
		Items:        []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Guest", out.CustomerName)
}

func TestGuestSeqIncrementsPerOrder(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	for want := 1; want <= 3; want++ {
		out, err := f.orders.Create(ctx, &models.OrderCreateIn{
			Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, want, out.GuestSeq)
	}
}

func TestGuestSeqUniqueUnderConcurrency(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	const n = 20
	var wg sync.WaitGroup
	seqs := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.orders.Create(ctx, &models.OrderCreateIn{
				Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
			})
			if err == nil {
				seqs <- out.GuestSeq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "guest seq %d assigned twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
}

func TestCloseOrder(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	out, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)

	closed, err := f.orders.Close(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, closed.ID)

	// Closing again is a no-op, not an error.
	again, err := f.orders.Close(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, again.ID)

	active, err := f.orders.List(ctx, models.OrderStatusActive, 0)
	require.NoError(t, err)
	assert.Empty(t, active)

	closedList, err := f.orders.List(ctx, models.OrderStatusClosed, 0)
	require.NoError(t, err)
	assert.Len(t, closedList, 1)
}

func TestCloseOrderNotFound(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.orders.Close(context.Background(), 404)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestPurgeClosedOrders(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	first, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)

	_, err = f.orders.Close(ctx, first.ID)
	require.NoError(t, err)

	deleted, err := f.orders.PurgeClosed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// The active order survives the purge.
	active, err := f.orders.List(ctx, models.OrderStatusActive, 0)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestFeedSplitsActiveAndRecentClosed(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	first, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)

	_, err = f.orders.Close(ctx, first.ID)
	require.NoError(t, err)

	feed, err := f.orders.Feed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed.Active, 1)
	require.Len(t, feed.RecentClosed, 1)
	assert.Equal(t, second.ID, feed.Active[0].ID)
	assert.Equal(t, first.ID, feed.RecentClosed[0].ID)
}

func TestOrderMutationsBroadcast(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	latte := f.seedProduct(t, "Latte", 1000)

	ordersConn := &fakeConn{}
	dashConn := &fakeConn{}
	f.hub.Join("orders", ordersConn)
	f.hub.Join("dashboard", dashConn)

	out, err := f.orders.Create(ctx, &models.OrderCreateIn{
		Items: []models.OrderItemIn{{ProductID: latte.ID, Qty: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ordersConn.count())
	assert.Equal(t, 1, dashConn.count())

	_, err = f.orders.Close(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ordersConn.count())
	assert.Equal(t, 2, dashConn.count())
}
