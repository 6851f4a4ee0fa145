// Package pos is the application context the till talks to: it owns the store,
// the order queue, the cache and the event publisher, and is passed explicitly
// to every transport.
package pos

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/cache"
	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/entity"
	"github.com/Additional-Code/kusina/internal/messaging"
	"github.com/Additional-Code/kusina/internal/queue"
	"github.com/Additional-Code/kusina/internal/store"
	"github.com/Additional-Code/kusina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/kusina/service/pos")

// Service encapsulates the point-of-sale operations.
type Service struct {
	store     *store.Store
	queue     *queue.Queue
	cache     cache.Store
	publisher *messaging.Publisher
	logger    *zap.Logger
	location  *time.Location
	menuTTL   time.Duration
	statsTTL  time.Duration
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     *store.Store
	Queue     *queue.Queue
	Cache     cache.Store
	Publisher *messaging.Publisher `optional:"true"`
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.Kitchen.Location
	if loc == nil {
		loc = time.Local
	}
	c := p.Cache
	if c == nil {
		c = cache.Noop()
	}
	return &Service{
		store:     p.Store,
		queue:     p.Queue,
		cache:     c,
		publisher: p.Publisher,
		logger:    p.Logger,
		location:  loc,
		menuTTL:   p.Config.Kitchen.MenuCacheTTL,
		statsTTL:  p.Config.Kitchen.StatsCacheTTL,
	}
}

// PlaceOrderInput is what the cashier submits for a new order.
type PlaceOrderInput struct {
	CustomerName string
	Items        []entity.LineItem
	TotalPrice   float64
}

// Location is the kitchen's timezone, used for calendar days and display.
func (s *Service) Location() *time.Location {
	return s.location
}

// Menu returns the menu ordered by category then name, served from cache when warm.
func (s *Service) Menu(ctx context.Context) ([]entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.Menu")
	defer span.End()

	var items []entity.MenuItem
	if hit, err := cache.GetJSON(ctx, s.cache, cache.MenuKey, &items); err != nil {
		s.logger.Warn("menu cache read failed", zap.Error(err))
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return items, nil
	}

	items, err := s.store.ListMenu(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, cache.MenuKey, items, s.menuTTL); err != nil {
		s.logger.Warn("menu cache write failed", zap.Error(err))
	}
	return items, nil
}

// AddMenuItem adds an item to the menu and returns it with its id.
func (s *Service) AddMenuItem(ctx context.Context, name string, price float64, category string) (entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.AddMenuItem")
	defer span.End()

	id, err := s.store.AddMenuItem(ctx, name, price, category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return entity.MenuItem{}, err
	}
	s.dropCache(ctx, cache.MenuKey)
	s.publisher.Publish(ctx, messaging.Event{Type: messaging.EventMenuItemAdded, MenuItemID: id})

	return entity.MenuItem{
		ID:       id,
		Name:     strings.TrimSpace(name),
		Price:    price,
		Category: s.store.MenuCategory(category),
	}, nil
}

// DeleteMenuItem removes an item from the menu. Unknown ids are ignored.
func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "PosService.DeleteMenuItem", trace.WithAttributes(attribute.Int64("menu.id", id)))
	defer span.End()

	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return err
	}
	s.dropCache(ctx, cache.MenuKey)
	s.publisher.Publish(ctx, messaging.Event{Type: messaging.EventMenuItemDeleted, MenuItemID: id})
	return nil
}

// PendingOrders returns the queue, oldest first.
func (s *Service) PendingOrders() []entity.Order {
	return s.queue.All()
}

// NextOrder returns the order that the next completion will serve, if any.
func (s *Service) NextOrder() (entity.Order, bool) {
	return s.queue.Peek()
}

// Order looks up a single order in the store, pending or completed.
func (s *Service) Order(ctx context.Context, id int64) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.Order", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return entity.Order{}, err
	}
	return order, nil
}

// QueueSize returns the number of pending orders.
func (s *Service) QueueSize() int {
	return s.queue.Size()
}

// PlaceOrder validates the input and appends a new pending order to the queue.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.PlaceOrder", trace.WithAttributes(attribute.Int("order.items", len(in.Items))))
	defer span.End()

	if len(in.Items) == 0 {
		return entity.Order{}, errorbank.Validation("an order needs at least one item")
	}

	order, err := s.queue.Enqueue(ctx, in.CustomerName, in.Items, in.TotalPrice)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enqueue failed")
		return entity.Order{}, err
	}

	s.publisher.Publish(ctx, messaging.Event{
		Type:       messaging.EventOrderPlaced,
		OccurredAt: order.CreatedAt,
		OrderID:    order.ID,
		Customer:   order.CustomerName,
		Total:      order.TotalPrice,
	})
	return order, nil
}

// Quote prices items against the current menu. Unknown item names are rejected.
func (s *Service) Quote(ctx context.Context, items []entity.LineItem) (float64, error) {
	menu, err := s.Menu(ctx)
	if err != nil {
		return 0, err
	}
	prices := make(map[string]float64, len(menu))
	for _, item := range menu {
		prices[strings.ToLower(item.Name)] = item.Price
	}

	var total float64
	for _, li := range items {
		price, ok := prices[strings.ToLower(strings.TrimSpace(li.Name))]
		if !ok {
			return 0, errorbank.Validation("item is not on the menu", errorbank.WithDetail("name", li.Name))
		}
		total += price * float64(li.Qty)
	}
	return total, nil
}

// CompleteNextOrder serves the oldest pending order. ok is false when the queue is empty.
func (s *Service) CompleteNextOrder(ctx context.Context) (entity.Order, bool, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.CompleteNextOrder")
	defer span.End()

	order, ok, err := s.queue.Dequeue(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dequeue failed")
		return entity.Order{}, false, err
	}
	if !ok {
		return entity.Order{}, false, nil
	}

	s.dropCache(ctx, cache.StatsKey(order.CompletedAt.In(s.location)))
	s.publisher.Publish(ctx, messaging.Event{
		Type:       messaging.EventOrderCompleted,
		OccurredAt: order.CompletedAt,
		OrderID:    order.ID,
		Customer:   order.CustomerName,
		Total:      order.TotalPrice,
	})
	return order, true, nil
}

// RefreshQueue reloads pending orders from the store.
func (s *Service) RefreshQueue(ctx context.Context) error {
	ctx, span := serviceTracer.Start(ctx, "PosService.RefreshQueue")
	defer span.End()

	if err := s.queue.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return err
	}
	return nil
}

// Transactions returns completed orders, newest first.
func (s *Service) Transactions(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.Transactions")
	defer span.End()

	return s.store.ListCompletedOrders(ctx)
}

// TodayStats summarises today's completed orders in the kitchen's timezone.
func (s *Service) TodayStats(ctx context.Context) (entity.DailyStats, error) {
	ctx, span := serviceTracer.Start(ctx, "PosService.TodayStats")
	defer span.End()

	today := s.store.Now().In(s.location)
	key := cache.StatsKey(today)

	var stats entity.DailyStats
	if hit, err := cache.GetJSON(ctx, s.cache, key, &stats); err != nil {
		s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return stats, nil
	}

	stats, err := s.store.DailyStats(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return entity.DailyStats{}, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, stats, s.statsTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stats, nil
}

func (s *Service) dropCache(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
