package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
)

type MySQLStore struct {
	db  *bun.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())
	db.RegisterModel((*models.ProductOptionGroup)(nil))

	store := &MySQLStore{db: db, log: log}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating tables if not exist")

	for _, query := range SchemaStatements {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "mysql", "All tables ready")
	return nil
}

// ---- Users ----

func (s *MySQLStore) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now().UTC()
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save user %s: %s", user.Phone, err.Error()))
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *MySQLStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().Model(user).Where("phone = ?", phone).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *MySQLStore) CountUsers(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ---- Categories ----

func (s *MySQLStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var cats []*models.Category
	if err := s.db.NewSelect().Model(&cats).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

func (s *MySQLStore) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	cat := new(models.Category)
	err := s.db.NewSelect().Model(cat).Where("name = ?", name).Scan(ctx)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	cat = &models.Category{Name: name}
	if _, err := s.db.NewInsert().Model(cat).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.log.LogDatabase("INSERT", "categories", fmt.Sprintf("Created category %q", name))
	return cat, nil
}

func (s *MySQLStore) DeleteCategory(ctx context.Context, id int64) error {
	// products.category_id is ON DELETE SET NULL; products survive.
	res, err := s.db.NewDelete().Model((*models.Category)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Products ----

func (s *MySQLStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := s.db.NewSelect().Model(&products).
		Relation("Category").
		Relation("OptionGroups").
		Order("product.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *MySQLStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p := new(models.Product)
	err := s.db.NewSelect().Model(p).
		Relation("Category").
		Relation("OptionGroups").
		Where("product.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *MySQLStore) CreateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error {
	p.CreatedAt = time.Now().UTC()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
			return err
		}
		return insertProductGroups(ctx, tx, p.ID, groupIDs)
	})
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save product %q: %s", p.Name, err.Error()))
		return fmt.Errorf("failed to save product: %w", err)
	}
	s.log.LogDatabase("INSERT", "products", fmt.Sprintf("Product %d saved", p.ID))
	return nil
}

func (s *MySQLStore) UpdateProduct(ctx context.Context, p *models.Product, groupIDs []int64) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(p).
			Column("name", "base_price", "description", "image_filename", "category_id").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// MySQL also reports 0 affected rows for a no-change update, so
			// confirm existence before treating this as missing.
			exists, err := tx.NewSelect().Model((*models.Product)(nil)).Where("id = ?", p.ID).Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
		}
		if groupIDs == nil {
			return nil
		}
		if _, err := tx.NewDelete().Model((*models.ProductOptionGroup)(nil)).Where("product_id = ?", p.ID).Exec(ctx); err != nil {
			return err
		}
		return insertProductGroups(ctx, tx, p.ID, groupIDs)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func insertProductGroups(ctx context.Context, tx bun.Tx, productID int64, groupIDs []int64) error {
	for _, gid := range groupIDs {
		link := &models.ProductOptionGroup{ProductID: productID, GroupID: gid}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) DeleteProduct(ctx context.Context, id int64) error {
	// order_items.product_id is ON DELETE SET NULL; historical orders keep
	// their snapshots.
	res, err := s.db.NewDelete().Model((*models.Product)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Option groups and items ----

func (s *MySQLStore) ListOptionGroups(ctx context.Context) ([]*models.OptionGroup, error) {
	var groups []*models.OptionGroup
	err := s.db.NewSelect().Model(&groups).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Order("option_group.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list option groups: %w", err)
	}
	return groups, nil
}

func (s *MySQLStore) GetOptionGroup(ctx context.Context, id int64) (*models.OptionGroup, error) {
	g := new(models.OptionGroup)
	err := s.db.NewSelect().Model(g).
		Relation("Items").
		Where("option_group.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get option group: %w", err)
	}
	return g, nil
}

func (s *MySQLStore) GetOptionGroupByName(ctx context.Context, name string) (*models.OptionGroup, error) {
	g := new(models.OptionGroup)
	err := s.db.NewSelect().Model(g).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get option group: %w", err)
	}
	return g, nil
}

func (s *MySQLStore) CreateOptionGroup(ctx context.Context, g *models.OptionGroup) error {
	if _, err := s.db.NewInsert().Model(g).Exec(ctx); err != nil {
		return fmt.Errorf("failed to save option group: %w", err)
	}
	return nil
}

func (s *MySQLStore) UpdateOptionGroup(ctx context.Context, g *models.OptionGroup) error {
	_, err := s.db.NewUpdate().Model(g).
		Column("name", "select_type", "is_required").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update option group: %w", err)
	}
	return nil
}

func (s *MySQLStore) DeleteOptionGroup(ctx context.Context, id int64) error {
	// option_items cascade at the FK level.
	res, err := s.db.NewDelete().Model((*models.OptionGroup)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete option group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore) GetOptionItem(ctx context.Context, id int64) (*models.OptionItem, error) {
	it := new(models.OptionItem)
	err := s.db.NewSelect().Model(it).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get option item: %w", err)
	}
	return it, nil
}

func (s *MySQLStore) ListOptionItems(ctx context.Context, ids []int64) ([]*models.OptionItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*models.OptionItem
	err := s.db.NewSelect().Model(&items).Where("id IN (?)", bun.In(ids)).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list option items: %w", err)
	}
	return items, nil
}

func (s *MySQLStore) CreateOptionItem(ctx context.Context, it *models.OptionItem) error {
	if _, err := s.db.NewInsert().Model(it).Exec(ctx); err != nil {
		return fmt.Errorf("failed to save option item: %w", err)
	}
	return nil
}

func (s *MySQLStore) UpdateOptionItem(ctx context.Context, it *models.OptionItem) error {
	_, err := s.db.NewUpdate().Model(it).
		Column("name", "price", "image_filename").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update option item: %w", err)
	}
	return nil
}

func (s *MySQLStore) DeleteOptionItem(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*models.OptionItem)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete option item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Orders ----

func (s *MySQLStore) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
			if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
				return err
			}
			for _, opt := range item.Options {
				opt.ItemID = item.ID
				if _, err := tx.NewInsert().Model(opt).Exec(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save order: %s", err.Error()))
		return fmt.Errorf("failed to save order: %w", err)
	}
	s.log.LogDatabase("INSERT", "orders", fmt.Sprintf("Order %d saved with %d item(s)", order.ID, len(order.Items)))
	return nil
}

func (s *MySQLStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := new(models.Order)
	err := s.db.NewSelect().Model(order).
		Relation("Items").
		Relation("Items.Options").
		Where("`order`.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *MySQLStore) ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	q := s.db.NewSelect().Model(&orders).
		Relation("Items").
		Relation("Items.Options").
		Where("status = ?", status)
	if status == models.OrderStatusActive {
		q = q.Order("created_at ASC")
	} else {
		q = q.Order("closed_at DESC")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *MySQLStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.db.NewUpdate().Model(order).
		Column("status", "closed_at", "total").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (s *MySQLStore) PurgeClosedOrders(ctx context.Context) (int64, error) {
	// Items and item options cascade at the FK level.
	res, err := s.db.NewDelete().Model((*models.Order)(nil)).
		Where("status = ?", models.OrderStatusClosed).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge closed orders: %w", err)
	}
	n, _ := res.RowsAffected()
	s.log.LogDatabase("DELETE", "orders", fmt.Sprintf("Purged %d closed order(s)", n))
	return n, nil
}

func (s *MySQLStore) NextGuestSeq(ctx context.Context, day string) (int, error) {
	// Atomic get-or-increment keyed by local date. LAST_INSERT_ID(expr) makes
	// the assigned value readable from the same connection on both the insert
	// and the update path, so concurrent creates never share a number.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO guest_counters (day, seq) VALUES (?, LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to advance guest counter: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read guest counter: %w", err)
	}
	return int(seq), nil
}

// ---- Dashboard aggregates ----

func (s *MySQLStore) SumOrdersBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var sum decimal.Decimal
	err := s.db.NewSelect().Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total), 0)").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Scan(ctx, &sum)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum orders: %w", err)
	}
	count, err := s.db.NewSelect().Model((*models.Order)(nil)).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(ctx)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return sum, count, nil
}

func (s *MySQLStore) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.NewSelect().Model(&orders).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return orders, nil
}

func (s *MySQLStore) OrderCreationTimes(ctx context.Context) ([]time.Time, error) {
	var times []time.Time
	err := s.db.NewSelect().Model((*models.Order)(nil)).
		Column("created_at").
		Scan(ctx, &times)
	if err != nil {
		return nil, fmt.Errorf("failed to list order times: %w", err)
	}
	return times, nil
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}
