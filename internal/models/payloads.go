package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// One explicit payload type per hub channel. Every push is a full snapshot.

type OrdersPayload struct {
	Type         string     `json:"type"`
	Active       []OrderOut `json:"active"`
	RecentClosed []OrderOut `json:"recent_closed"`
}

type ProductsPayload struct {
	Type       string                      `json:"type"`
	ByCategory map[string][]ProductSummary `json:"by_category"`
}

type OptionsPayload struct {
	Type   string           `json:"type"`
	Groups []OptionGroupOut `json:"groups"`
}

type DashboardStats struct {
	DaySales    decimal.Decimal `json:"day_sales"`
	MonthSales  decimal.Decimal `json:"month_sales"`
	DayOrders   int             `json:"day_orders"`
	MonthOrders int             `json:"month_orders"`
}

type HourPoint struct {
	Hour   int `json:"hour"`
	Orders int `json:"orders"`
}

// RecentOrder exposes the daily guest number as the display identifier.
type RecentOrder struct {
	ID           int             `json:"id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type DashboardPayload struct {
	Type   string         `json:"type"`
	Stats  DashboardStats `json:"stats"`
	Hourly []HourPoint    `json:"hourly"`
	Recent []RecentOrder  `json:"recent"`
}
