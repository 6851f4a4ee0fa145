package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/kusina/internal/entity"
)

func TestFromOrderRendersDisplayFields(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	placed := time.Date(2024, time.March, 5, 6, 30, 0, 0, time.UTC)

	resp := FromOrder(entity.Order{
		ID:           3,
		CustomerName: "Juan Dela Cruz",
		Items:        []entity.LineItem{{Name: "Beef Caldereta", Qty: 1}, {Name: "Rice", Qty: 2}},
		TotalPrice:   1230,
		Status:       entity.StatusPending,
		CreatedAt:    placed,
		UpdatedAt:    placed,
	}, manila)

	assert.Equal(t, "03/05/2024 02:30:00 PM", resp.ReceivedAtDisplay)
	assert.Equal(t, "Beef Caldereta x1, Rice x2", resp.ItemsSummary)
	assert.Equal(t, "₱1,230.00", resp.TotalDisplay)
	assert.Nil(t, resp.CompletedAt)
	assert.Equal(t, "pending", resp.Status)
}

func TestFromOrderWithoutTimes(t *testing.T) {
	resp := FromOrder(entity.Order{ID: 1}, nil)
	assert.Equal(t, "Time not available", resp.ReceivedAtDisplay)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.ItemsSummary)
}

func TestFromStats(t *testing.T) {
	resp := FromStats(entity.DailyStats{
		Day:               time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		OrderCount:        2,
		TotalRevenue:      150,
		AverageOrderValue: 75,
	})
	assert.Equal(t, "2024-03-05", resp.Day)
	assert.Equal(t, "₱150.00", resp.TotalRevenueDisplay)
	assert.Equal(t, "₱75.00", resp.AverageOrderDisplay)
}
