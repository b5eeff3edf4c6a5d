package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

func init() {
	// Monetary fields go over the wire as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type SelectType string

const (
	SelectSingle SelectType = "single"
	SelectMulti  SelectType = "multi"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID   int64  `json:"id" bun:"id,pk,autoincrement"`
	Name string `json:"name" bun:"name"`
}

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID            int64           `json:"id" bun:"id,pk,autoincrement"`
	Name          string          `json:"name" bun:"name"`
	BasePrice     decimal.Decimal `json:"base_price" bun:"base_price"`
	Description   *string         `json:"description" bun:"description"`
	ImageFilename *string         `json:"-" bun:"image_filename"`
	CategoryID    *int64          `json:"category_id" bun:"category_id"`
	CreatedAt     time.Time       `json:"created_at" bun:"created_at,nullzero"`

	Category     *Category      `json:"-" bun:"rel:belongs-to,join:category_id=id"`
	OptionGroups []*OptionGroup `json:"-" bun:"m2m:product_option_groups,join:Product=OptionGroup"`
}

type OptionGroup struct {
	bun.BaseModel `bun:"table:option_groups"`

	ID         int64      `json:"id" bun:"id,pk,autoincrement"`
	Name       string     `json:"name" bun:"name"`
	SelectType SelectType `json:"select_type" bun:"select_type"`
	IsRequired bool       `json:"is_required" bun:"is_required"`

	Items []*OptionItem `json:"items" bun:"rel:has-many,join:id=group_id"`
}

type OptionItem struct {
	bun.BaseModel `bun:"table:option_items"`

	ID            int64           `json:"id" bun:"id,pk,autoincrement"`
	GroupID       int64           `json:"group_id" bun:"group_id"`
	Name          string          `json:"name" bun:"name"`
	Price         decimal.Decimal `json:"price" bun:"price"`
	ImageFilename *string         `json:"-" bun:"image_filename"`
}

// ProductOptionGroup is the m2m join between products and option groups.
type ProductOptionGroup struct {
	bun.BaseModel `bun:"table:product_option_groups"`

	ProductID   int64        `bun:"product_id,pk"`
	Product     *Product     `bun:"rel:belongs-to,join:product_id=id"`
	GroupID     int64        `bun:"group_id,pk"`
	OptionGroup *OptionGroup `bun:"rel:belongs-to,join:group_id=id"`
}

type ProductOut struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Description    *string         `json:"description"`
	CategoryName   *string         `json:"category_name"`
	ImageURL       *string         `json:"image_url"`
	OptionGroupIDs []int64         `json:"option_group_ids"`
}

// ProductSummary is the per-product entry inside the category map pushed to
// menu displays.
type ProductSummary struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"image_url"`
}

type OptionItemOut struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"image_url"`
}

type OptionGroupOut struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	SelectType SelectType      `json:"select_type"`
	IsRequired bool            `json:"is_required"`
	Items      []OptionItemOut `json:"items"`
}
