package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusActive OrderStatus = "active"
	OrderStatusClosed OrderStatus = "closed"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64           `json:"id" bun:"id,pk,autoincrement"`
	CustomerName string          `json:"customer_name" bun:"customer_name"`
	TakeAway     bool            `json:"take_away" bun:"take_away"`
	Total        decimal.Decimal `json:"total" bun:"total"`
	Status       OrderStatus     `json:"status" bun:"status"`
	CreatedAt    time.Time       `json:"created_at" bun:"created_at"`
	ClosedAt     *time.Time      `json:"closed_at" bun:"closed_at"`

	// Daily guest number and the local date it was issued for.
	GuestSeq  int    `json:"guest_seq" bun:"guest_seq"`
	GuestDate string `json:"guest_date" bun:"guest_date"`

	Items []*OrderItem `json:"items" bun:"rel:has-many,join:id=order_id"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID           int64           `json:"id" bun:"id,pk,autoincrement"`
	OrderID      int64           `json:"order_id" bun:"order_id"`
	ProductID    *int64          `json:"product_id" bun:"product_id"`
	NameSnapshot string          `json:"name_snapshot" bun:"name_snapshot"`
	UnitPrice    decimal.Decimal `json:"unit_price" bun:"unit_price"`
	Qty          int             `json:"qty" bun:"qty"`

	Options []*OrderItemOption `json:"options" bun:"rel:has-many,join:id=item_id"`
}

type OrderItemOption struct {
	bun.BaseModel `bun:"table:order_item_options"`

	ID           int64           `json:"id" bun:"id,pk,autoincrement"`
	ItemID       int64           `json:"item_id" bun:"item_id"`
	OptionItemID *int64          `json:"option_item_id" bun:"option_item_id"`
	NameSnapshot string          `json:"name_snapshot" bun:"name_snapshot"`
	Price        decimal.Decimal `json:"price" bun:"price"`
}

type OrderItemIn struct {
	ProductID     int64            `json:"product_id"`
	Qty           int              `json:"qty"`
	OptionItemIDs []int64          `json:"option_item_ids"`
	UnitPriceBase *decimal.Decimal `json:"unit_price_base"`
	NameSuffix    string           `json:"name_suffix"`
}

type OrderCreateIn struct {
	CustomerName string        `json:"customer_name"`
	TakeAway     bool          `json:"take_away"`
	Items        []OrderItemIn `json:"items"`
}

type OrderItemOut struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type OrderOut struct {
	ID           int64           `json:"id"`
	GuestSeq     int             `json:"guest_seq"`
	CustomerName string          `json:"customer_name"`
	TakeAway     bool            `json:"take_away"`
	Items        []OrderItemOut  `json:"items"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrdersFeed struct {
	Active       []OrderOut `json:"active"`
	RecentClosed []OrderOut `json:"recent_closed"`
}

// OrderEvent is the Kafka message published on order mutations.
type OrderEvent struct {
	Type      string          `json:"type"`
	OrderID   int64           `json:"order_id"`
	GuestSeq  int             `json:"guest_seq"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}
