package dto

import (
	"time"

	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/format"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                int64             `json:"id"`
	CustomerName      string            `json:"customer_name"`
	Items             []entity.LineItem `json:"items"`
	TotalPrice        float64           `json:"total_price"`
	Status            string            `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	ReceivedAtDisplay string            `json:"received_at_display"`
	ItemsSummary      string            `json:"items_summary"`
	TotalDisplay      string            `json:"total_display"`
}

// OrderRequest is the body accepted when placing an order.
type OrderRequest struct {
	CustomerName string            `json:"customer_name"`
	Items        []entity.LineItem `json:"items"`
	TotalPrice   float64           `json:"total_price"`
}

// FromOrder converts an order, rendering display fields in loc.
func FromOrder(o entity.Order, loc *time.Location) OrderResponse {
	if loc == nil {
		loc = time.UTC
	}
	items := o.Items
	if items == nil {
		items = []entity.LineItem{}
	}
	resp := OrderResponse{
		ID:                o.ID,
		CustomerName:      o.CustomerName,
		Items:             items,
		TotalPrice:        o.TotalPrice,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.In(loc),
		UpdatedAt:         o.UpdatedAt.In(loc),
		ReceivedAtDisplay: displayTime(o.CreatedAt, loc),
		ItemsSummary:      format.ItemsSummary(o.Items),
		TotalDisplay:      format.Peso(o.TotalPrice),
	}
	if !o.CompletedAt.IsZero() {
		at := o.CompletedAt.In(loc)
		resp.CompletedAt = &at
	}
	return resp
}

// FromOrders converts a list of orders.
func FromOrders(orders []entity.Order, loc *time.Location) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o, loc))
	}
	return out
}

func displayTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return format.Timestamp(t)
	}
	return format.Timestamp(t.In(loc))
}
