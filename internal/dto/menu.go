package dto

import (
	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/format"
)

// MenuItemResponse is a menu entry with its display price.
type MenuItemResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	PriceDisplay string  `json:"price_display"`
}

// MenuItemRequest is the body accepted when adding to the menu.
type MenuItemRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

func FromMenuItem(item entity.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Price:        item.Price,
		Category:     item.Category,
		PriceDisplay: format.Peso(item.Price),
	}
}

func FromMenu(items []entity.MenuItem) []MenuItemResponse {
	out := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromMenuItem(item))
	}
	return out
}
