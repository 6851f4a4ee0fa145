package dto

import (
	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/format"
)

// StatsResponse summarises one day of completed orders.
type StatsResponse struct {
	Day                 string  `json:"day"`
	OrderCount          int     `json:"order_count"`
	TotalRevenue        float64 `json:"total_revenue"`
	AverageOrderValue   float64 `json:"average_order_value"`
	TotalRevenueDisplay string  `json:"total_revenue_display"`
	AverageOrderDisplay string  `json:"average_order_value_display"`
}

func FromStats(s entity.DailyStats) StatsResponse {
	return StatsResponse{
		Day:                 s.Day.Format("2006-01-02"),
		OrderCount:          s.OrderCount,
		TotalRevenue:        s.TotalRevenue,
		AverageOrderValue:   s.AverageOrderValue,
		TotalRevenueDisplay: format.Peso(s.TotalRevenue),
		AverageOrderDisplay: format.Peso(s.AverageOrderValue),
	}
}
