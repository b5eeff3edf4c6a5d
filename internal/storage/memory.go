package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
)

// InMemoryStore mirrors the MySQL store's semantics, including the two
// deletion policies and the atomic guest counter. Used by tests and local
// development without a database.
type InMemoryStore struct {
	mu sync.Mutex

	users      map[int64]*models.User
	categories map[int64]*models.Category
	products   map[int64]*models.Product
	groups     map[int64]*models.OptionGroup
	items      map[int64]*models.OptionItem
	orders     map[int64]*models.Order

	// product id -> option group ids
	productGroups map[int64][]int64
	// local date -> last issued guest number
	guestCounters map[string]int

	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[int64]*models.User),
		categories:    make(map[int64]*models.Category),
		products:      make(map[int64]*models.Product),
		groups:        make(map[int64]*models.OptionGroup),
		items:         make(map[int64]*models.OptionItem),
		orders:        make(map[int64]*models.Order),
		productGroups: make(map[int64][]int64),
		guestCounters: make(map[string]int),
	}
}

func (s *InMemoryStore) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// ---- Users ----

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextIDLocked()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) CountUsers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// ---- Categories ----

func (s *InMemoryStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, nil
		}
	}
	c := &models.Category{ID: s.nextIDLocked(), Name: name}
	s.categories[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	for _, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			p.Category = nil
		}
	}
	return nil
}

// ---- Products ----

func (s *InMemoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.hydrateProductLocked(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.hydrateProductLocked(p), nil
}

func (s *InMemoryStore) hydrateProductLocked(p *models.Product) *models.Product {
	p.Category = nil
	if p.CategoryID != nil {
		p.Category = s.categories[*p.CategoryID]
	}
	p.OptionGroups = nil
	for _, gid := range s.productGroups[p.ID] {
		if g, ok := s.groups[gid]; ok {
			p.OptionGroups = append(p.OptionGroups, g)
		}
	}
	return p
}

func (s *InMemoryStore) CreateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextIDLocked()
	p.CreatedAt = time.Now().UTC()
	s.products[p.ID] = p
	s.productGroups[p.ID] = append([]int64(nil), groupIDs...)
	return nil
}

func (s *InMemoryStore) UpdateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	s.products[p.ID] = p
	if groupIDs != nil {
		s.productGroups[p.ID] = append([]int64(nil), groupIDs...)
	}
	return nil
}

func (s *InMemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	delete(s.productGroups, id)
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.ProductID != nil && *it.ProductID == id {
				it.ProductID = nil
			}
		}
	}
	return nil
}

// ---- Option groups and items ----

func (s *InMemoryStore) ListOptionGroups(ctx context.Context) ([]*models.OptionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.OptionGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, s.hydrateGroupLocked(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) hydrateGroupLocked(g *models.OptionGroup) *models.OptionGroup {
	g.Items = nil
	for _, it := range s.items {
		if it.GroupID == g.ID {
			g.Items = append(g.Items, it)
		}
	}
	sort.Slice(g.Items, func(i, j int) bool { return g.Items[i].ID < g.Items[j].ID })
	return g
}

func (s *InMemoryStore) GetOptionGroup(ctx context.Context, id int64) (*models.OptionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.hydrateGroupLocked(g), nil
}

func (s *InMemoryStore) GetOptionGroupByName(ctx context.Context, name string) (*models.OptionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) CreateOptionGroup(ctx context.Context, g *models.OptionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.nextIDLocked()
	s.groups[g.ID] = g
	return nil
}

func (s *InMemoryStore) UpdateOptionGroup(ctx context.Context, g *models.OptionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; !ok {
		return ErrNotFound
	}
	s.groups[g.ID] = g
	return nil
}

func (s *InMemoryStore) DeleteOptionGroup(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)
	// cascade to the group's items
	for iid, it := range s.items {
		if it.GroupID == id {
			delete(s.items, iid)
		}
	}
	for pid, gids := range s.productGroups {
		kept := gids[:0]
		for _, gid := range gids {
			if gid != id {
				kept = append(kept, gid)
			}
		}
		s.productGroups[pid] = kept
	}
	return nil
}

func (s *InMemoryStore) GetOptionItem(ctx context.Context, id int64) (*models.OptionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return it, nil
}

func (s *InMemoryStore) ListOptionItems(ctx context.Context, ids []int64) ([]*models.OptionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OptionItem
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreateOptionItem(ctx context.Context, it *models.OptionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.nextIDLocked()
	s.items[it.ID] = it
	return nil
}

func (s *InMemoryStore) UpdateOptionItem(ctx context.Context, it *models.OptionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.items[it.ID]
	if !ok {
		return ErrNotFound
	}
	it.GroupID = old.GroupID
	s.items[it.ID] = it
	return nil
}

func (s *InMemoryStore) DeleteOptionItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for _, o := range s.orders {
		for _, item := range o.Items {
			for _, opt := range item.Options {
				if opt.OptionItemID != nil && *opt.OptionItemID == id {
					opt.OptionItemID = nil
				}
			}
		}
	}
	return nil
}

// ---- Orders ----

func (s *InMemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = s.nextIDLocked()
	for _, item := range order.Items {
		item.ID = s.nextIDLocked()
		item.OrderID = order.ID
		for _, opt := range item.Options {
			opt.ID = s.nextIDLocked()
			opt.ItemID = item.ID
		}
	}
	s.orders[order.ID] = order
	return nil
}

func (s *InMemoryStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *InMemoryStore) ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	if status == models.OrderStatusActive {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool {
			var ti, tj time.Time
			if out[i].ClosedAt != nil {
				ti = *out[i].ClosedAt
			}
			if out[j].ClosedAt != nil {
				tj = *out[j].ClosedAt
			}
			return ti.After(tj)
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return ErrNotFound
	}
	s.orders[order.ID] = order
	return nil
}

func (s *InMemoryStore) PurgeClosedOrders(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, o := range s.orders {
		if o.Status == models.OrderStatusClosed {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) NextGuestSeq(ctx context.Context, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestCounters[day]++
	return s.guestCounters[day], nil
}

// ---- Dashboard aggregates ----

func (s *InMemoryStore) SumOrdersBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	count := 0
	for _, o := range s.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			sum = sum.Add(o.Total)
			count++
		}
	}
	return sum, count, nil
}

func (s *InMemoryStore) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) OrderCreationTimes(ctx context.Context) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.CreatedAt)
	}
	return out, nil
}

func (s *InMemoryStore) HealthCheck() error { return nil }
func (s *InMemoryStore) Close() error       { return nil }
