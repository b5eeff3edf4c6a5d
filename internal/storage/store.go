package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
)

// ErrNotFound is returned by lookups when the entity does not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)

	// Categories
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	// DeleteCategory nulls out the category reference on its products; it
	// never deletes them.
	DeleteCategory(ctx context.Context, id int64) error

	// Products
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error
	UpdateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error
	DeleteProduct(ctx context.Context, id int64) error

	// Option groups and items
	ListOptionGroups(ctx context.Context) ([]*models.OptionGroup, error)
	GetOptionGroup(ctx context.Context, id int64) (*models.OptionGroup, error)
	GetOptionGroupByName(ctx context.Context, name string) (*models.OptionGroup, error)
	CreateOptionGroup(ctx context.Context, g *models.OptionGroup) error
	UpdateOptionGroup(ctx context.Context, g *models.OptionGroup) error
	// DeleteOptionGroup cascades to the group's items.
	DeleteOptionGroup(ctx context.Context, id int64) error
	GetOptionItem(ctx context.Context, id int64) (*models.OptionItem, error)
	// ListOptionItems resolves the given ids; unknown ids are skipped.
	ListOptionItems(ctx context.Context, ids []int64) ([]*models.OptionItem, error)
	CreateOptionItem(ctx context.Context, it *models.OptionItem) error
	UpdateOptionItem(ctx context.Context, it *models.OptionItem) error
	DeleteOptionItem(ctx context.Context, id int64) error

	// Orders. CreateOrder persists the order with its items and item options
	// atomically.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// ListOrders returns active orders oldest-first and closed orders
	// most-recently-closed-first. limit <= 0 means no limit.
	ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	PurgeClosedOrders(ctx context.Context) (int64, error)

	// NextGuestSeq atomically increments and returns the guest counter for
	// the given local date ("2006-01-02"). The first call of a date returns 1.
	NextGuestSeq(ctx context.Context, day string) (int, error)

	// Dashboard aggregates
	SumOrdersBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
	OrderCreationTimes(ctx context.Context) ([]time.Time, error)

	HealthCheck() error
	Close() error
}
