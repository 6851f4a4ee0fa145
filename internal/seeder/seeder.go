package seeder

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/queue"
	"github.com/Additional-Code/kusina/internal/store"
)

// Module provides the seeder and runs it on start when KITCHEN_SEED_ON_START is set.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, s *Seeder) {
		if !cfg.Kitchen.SeedOnStart {
			return
		}
		lc.Append(fx.Hook{OnStart: s.Run})
	}),
)

type menuSample struct {
	name     string
	price    float64
	category string
}

type orderSample struct {
	customer string
	items    []entity.LineItem
	total    float64
}

var sampleMenu = []menuSample{
	{"Beef Caldereta", 180, "Main"},
	{"Chicken Adobo", 150, "Main"},
	{"Iced Tea", 45, "Drinks"},
	{"Rice", 25, "Sides"},
}

var samplePending = []orderSample{
	{"Maria Santos", []entity.LineItem{{Name: "Chicken Adobo", Qty: 1}, {Name: "Rice", Qty: 2}, {Name: "Iced Tea", Qty: 1}}, 245},
	{"Rhovic Gabijan", []entity.LineItem{{Name: "Nilagang Tinola", Qty: 3}, {Name: "Siomai rice", Qty: 2}, {Name: "Iced Tea", Qty: 4}}, 500},
	{"Eulin Ryan Bertrand", []entity.LineItem{{Name: "Sinigang na Spaghetti", Qty: 1}, {Name: "Rice", Qty: 2}, {Name: "Iced Tea", Qty: 1}}, 245},
}

var sampleCompleted = orderSample{
	"Juan Dela Cruz", []entity.LineItem{{Name: "Beef Caldereta", Qty: 1}, {Name: "Rice", Qty: 2}}, 230,
}

// Seeder fills an empty kitchen with demo data for local/dev setups.
type Seeder struct {
	store  *store.Store
	queue  *queue.Queue
	logger *zap.Logger
}

// New constructs a Seeder over the store and the loaded queue.
func New(st *store.Store, q *queue.Queue, logger *zap.Logger) *Seeder {
	return &Seeder{store: st, queue: q, logger: logger}
}

// Run seeds each of the menu, the queue and the history when it is empty.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Menu(ctx); err != nil {
		return err
	}
	if err := s.Pending(ctx); err != nil {
		return err
	}
	return s.Transactions(ctx)
}

// Menu seeds the sample menu if there is none.
func (s *Seeder) Menu(ctx context.Context) error {
	size, err := s.store.MenuSize(ctx)
	if err != nil {
		return err
	}
	if size > 0 {
		return nil
	}

	for _, m := range sampleMenu {
		if _, err := s.store.AddMenuItem(ctx, m.name, m.price, m.category); err != nil {
			return fmt.Errorf("seed menu item %s: %w", m.name, err)
		}
	}
	s.logger.Info("seeded menu", zap.Int("count", len(sampleMenu)))
	return nil
}

// Pending seeds sample orders through the queue if it is empty.
func (s *Seeder) Pending(ctx context.Context) error {
	if s.queue.Size() > 0 {
		return nil
	}

	for _, o := range samplePending {
		if _, err := s.queue.Enqueue(ctx, o.customer, o.items, o.total); err != nil {
			return fmt.Errorf("seed order for %s: %w", o.customer, err)
		}
	}
	s.logger.Info("seeded pending orders", zap.Int("count", len(samplePending)))
	return nil
}

// Transactions seeds one completed order if the history is empty.
func (s *Seeder) Transactions(ctx context.Context) error {
	history, err := s.store.ListCompletedOrders(ctx)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		return nil
	}

	order, err := s.store.CreateOrder(ctx, entity.OrderDraft{
		CustomerName: sampleCompleted.customer,
		Items:        sampleCompleted.items,
		TotalPrice:   sampleCompleted.total,
	})
	if err != nil {
		return fmt.Errorf("seed transaction: %w", err)
	}
	if _, err := s.store.SetOrderStatus(ctx, order.ID, entity.StatusCompleted); err != nil {
		return fmt.Errorf("seed transaction: %w", err)
	}
	s.logger.Info("seeded transaction", zap.Int64("order.id", order.ID))
	return nil
}
