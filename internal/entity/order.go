package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultCustomer names walk-in orders placed without a customer.
const DefaultCustomer = "Guest"

// OrderStatus tracks where an order sits in the kitchen.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// LineItem is one row of an order. Names are copied from the menu at order time.
type LineItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Order is a customer order stored in the orders table.
//
// UpdatedAt is rewritten on every status transition, so for completed orders it is
// the completion time. CreatedAt is never rewritten.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           int64       `bun:",pk,autoincrement" json:"id"`
	CustomerName string      `bun:"customer_name,notnull" json:"customer_name"`
	ItemsPayload string      `bun:"items,notnull" json:"-"`
	Items        []LineItem  `bun:"-" json:"items"`
	TotalPrice   float64     `bun:"total_price,notnull" json:"total_price"`
	Status       OrderStatus `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time   `bun:"updated_at,notnull" json:"updated_at"`
	CompletedAt  time.Time   `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}

// OrderDraft carries what a cashier enters before the order is persisted.
type OrderDraft struct {
	CustomerName string
	Items        []LineItem
	TotalPrice   float64
	// PlacedAt is stamped by the queue; the store stamps it when left zero.
	PlacedAt time.Time
}

// DailyStats summarises the completed orders of one calendar day.
type DailyStats struct {
	Day               time.Time `json:"day"`
	OrderCount        int       `json:"order_count"`
	TotalRevenue      float64   `json:"total_revenue"`
	AverageOrderValue float64   `json:"average_order_value"`
}
