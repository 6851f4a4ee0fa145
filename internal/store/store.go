// Package store is the durable owner of menu items and orders.
//
// Mutations commit before returning. Order listings decode the stored line items
// and leave out any record whose payload cannot be decoded; those are logged and
// counted as corrupt records instead of failing the whole listing.
package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/codec"
	"github.com/Additional-Code/kusina/internal/entity"
	menurepo "github.com/Additional-Code/kusina/internal/repository/menu"
	orderrepo "github.com/Additional-Code/kusina/internal/repository/order"
	"github.com/Additional-Code/kusina/pkg/errorbank"
)

var (
	storeTracer = otel.Tracer("github.com/Additional-Code/kusina/store")
	storeMeter  = otel.Meter("github.com/Additional-Code/kusina/store")
)

// Store persists menu items and orders.
type Store struct {
	menu     *menurepo.Repository
	orders   *orderrepo.Repository
	logger   *zap.Logger
	now      func() time.Time
	category string
	customer string
	corrupt  metric.Int64Counter
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the wall clock used to stamp orders.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaults overrides the category and customer applied to blank input.
func WithDefaults(category, customer string) Option {
	return func(s *Store) {
		if c := strings.TrimSpace(category); c != "" {
			s.category = c
		}
		if c := strings.TrimSpace(customer); c != "" {
			s.customer = c
		}
	}
}

// New wires a Store over the menu and order repositories.
func New(menu *menurepo.Repository, orders *orderrepo.Repository, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		menu:     menu,
		orders:   orders,
		logger:   logger,
		now:      time.Now,
		category: entity.DefaultCategory,
		customer: entity.DefaultCustomer,
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := storeMeter.Int64Counter("kusina.orders.corrupt_records",
		metric.WithDescription("Stored orders skipped because their items could not be decoded"))
	if err != nil {
		logger.Warn("corrupt record counter unavailable", zap.Error(err))
	}
	s.corrupt = counter

	return s
}

// Now returns the store's current time as it would be stamped on an order.
func (s *Store) Now() time.Time {
	return normalize(s.now())
}

// AddMenuItem validates and inserts a menu item, returning its id.
func (s *Store) AddMenuItem(ctx context.Context, name string, price float64, category string) (int64, error) {
	name = strings.TrimSpace(name)
	category = s.MenuCategory(category)

	ctx, span := storeTracer.Start(ctx, "Store.AddMenuItem", trace.WithAttributes(
		attribute.String("menu.name", name),
		attribute.String("menu.category", category),
	))
	defer span.End()

	if name == "" {
		return 0, errorbank.Validation("menu item name is required")
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errorbank.Validation("menu item price must be positive", errorbank.WithDetail("price", price))
	}

	item := &entity.MenuItem{Name: name, Price: price, Category: category}
	if err := s.menu.Create(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return 0, errorbank.Internal("failed to add menu item", errorbank.WithCause(err))
	}

	s.logger.Info("menu item added", zap.Int64("menu.id", item.ID), zap.String("name", name), zap.String("category", category))
	return item.ID, nil
}

// MenuCategory returns the category a menu item is filed under, applying the
// default to blank input.
func (s *Store) MenuCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return s.category
}

// DeleteMenuItem removes a menu item. Unknown ids are a no-op.
func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	ctx, span := storeTracer.Start(ctx, "Store.DeleteMenuItem", trace.WithAttributes(attribute.Int64("menu.id", id)))
	defer span.End()

	removed, err := s.menu.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete menu item", errorbank.WithCause(err))
	}
	if removed == 0 {
		s.logger.Debug("menu item already absent", zap.Int64("menu.id", id))
		return nil
	}

	s.logger.Info("menu item deleted", zap.Int64("menu.id", id))
	return nil
}

// ListMenu returns the menu ordered by category, then name.
func (s *Store) ListMenu(ctx context.Context) ([]entity.MenuItem, error) {
	ctx, span := storeTracer.Start(ctx, "Store.ListMenu")
	defer span.End()

	items, err := s.menu.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load menu", errorbank.WithCause(err))
	}
	return items, nil
}

// MenuSize counts the menu items without loading them.
func (s *Store) MenuSize(ctx context.Context) (int, error) {
	ctx, span := storeTracer.Start(ctx, "Store.MenuSize")
	defer span.End()

	n, err := s.menu.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return 0, errorbank.Internal("failed to count menu items", errorbank.WithCause(err))
	}
	return n, nil
}

// CreateOrder persists a pending order built from draft.
//
// The placement time is taken from the draft, or stamped now when the draft has none.
func (s *Store) CreateOrder(ctx context.Context, draft entity.OrderDraft) (*entity.Order, error) {
	ctx, span := storeTracer.Start(ctx, "Store.CreateOrder", trace.WithAttributes(attribute.Int("order.items", len(draft.Items))))
	defer span.End()

	if err := codec.Validate(draft.Items); err != nil {
		return nil, errorbank.Validation("invalid order items", errorbank.WithCause(err))
	}
	if draft.TotalPrice < 0 || math.IsNaN(draft.TotalPrice) || math.IsInf(draft.TotalPrice, 0) {
		return nil, errorbank.Validation("order total must not be negative", errorbank.WithDetail("total_price", draft.TotalPrice))
	}

	payload, err := codec.Encode(draft.Items)
	if err != nil {
		return nil, errorbank.Internal("failed to encode order items", errorbank.WithCause(err))
	}

	customer := strings.TrimSpace(draft.CustomerName)
	if customer == "" {
		customer = s.customer
	}
	placedAt := draft.PlacedAt
	if placedAt.IsZero() {
		placedAt = s.now()
	}
	placedAt = normalize(placedAt)

	order := &entity.Order{
		CustomerName: customer,
		ItemsPayload: payload,
		Items:        append([]entity.LineItem(nil), draft.Items...),
		TotalPrice:   draft.TotalPrice,
		Status:       entity.StatusPending,
		CreatedAt:    placedAt,
		UpdatedAt:    placedAt,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return order, nil
}

// GetOrder loads one order with its items decoded, whatever its status.
func (s *Store) GetOrder(ctx context.Context, id int64) (entity.Order, error) {
	ctx, span := storeTracer.Start(ctx, "Store.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	row, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return entity.Order{}, errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return entity.Order{}, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	items, err := codec.Decode(row.ItemsPayload)
	if err != nil {
		s.reportCorrupt(ctx, *row, err)
		return entity.Order{}, errorbank.CorruptRecord("order items cannot be decoded",
			errorbank.WithDetail("order_id", id), errorbank.WithCause(err))
	}
	row.Items = items
	return *row, nil
}

// ListPendingOrders returns pending orders, oldest first.
func (s *Store) ListPendingOrders(ctx context.Context) ([]entity.Order, error) {
	return s.listByStatus(ctx, "Store.ListPendingOrders", entity.StatusPending, false)
}

// ListCompletedOrders returns completed orders, newest first.
func (s *Store) ListCompletedOrders(ctx context.Context) ([]entity.Order, error) {
	return s.listByStatus(ctx, "Store.ListCompletedOrders", entity.StatusCompleted, true)
}

func (s *Store) listByStatus(ctx context.Context, spanName string, status entity.OrderStatus, newestFirst bool) ([]entity.Order, error) {
	ctx, span := storeTracer.Start(ctx, spanName)
	defer span.End()

	rows, err := s.orders.ListByStatus(ctx, status, newestFirst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}

	orders := make([]entity.Order, 0, len(rows))
	for _, row := range rows {
		items, err := codec.Decode(row.ItemsPayload)
		if err != nil {
			s.reportCorrupt(ctx, row, err)
			continue
		}
		row.Items = items
		orders = append(orders, row)
	}

	span.SetAttributes(attribute.Int("order.count", len(orders)), attribute.Int("order.skipped", len(rows)-len(orders)))
	return orders, nil
}

// SetOrderStatus transitions an order and stamps the transition time, which it returns.
//
// Only pending → completed is allowed. A missing or already completed order is a
// no-op and yields the zero time.
func (s *Store) SetOrderStatus(ctx context.Context, id int64, status entity.OrderStatus) (time.Time, error) {
	ctx, span := storeTracer.Start(ctx, "Store.SetOrderStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	switch status {
	case entity.StatusCompleted:
	case entity.StatusPending:
		return time.Time{}, errorbank.Validation("orders cannot return to pending", errorbank.WithDetail("order_id", id))
	default:
		return time.Time{}, errorbank.Validation("unknown order status", errorbank.WithDetail("status", string(status)))
	}

	at := normalize(s.now())
	changed, err := s.orders.Complete(ctx, id, at)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return time.Time{}, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	if !changed {
		s.logger.Debug("order not pending; status unchanged", zap.Int64("order.id", id))
		return time.Time{}, nil
	}

	s.logger.Info("order completed", zap.Int64("order.id", id), zap.Time("completed_at", at))
	return at, nil
}

// DailyStats aggregates the completed orders of day's calendar day, in day's location.
func (s *Store) DailyStats(ctx context.Context, day time.Time) (entity.DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	ctx, span := storeTracer.Start(ctx, "Store.DailyStats", trace.WithAttributes(attribute.String("stats.day", start.Format("2006-01-02"))))
	defer span.End()

	count, revenue, err := s.orders.CompletedTotals(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return entity.DailyStats{}, errorbank.Internal("failed to compute daily stats", errorbank.WithCause(err))
	}

	stats := entity.DailyStats{Day: start, OrderCount: count, TotalRevenue: revenue}
	if count > 0 {
		stats.AverageOrderValue = revenue / float64(count)
	}
	return stats, nil
}

func (s *Store) reportCorrupt(ctx context.Context, row entity.Order, err error) {
	var corrupt *codec.CorruptRecordError
	reason := "undecodable"
	if errors.As(err, &corrupt) {
		reason = corrupt.Reason
	}

	s.logger.Warn("skipping corrupt order record",
		zap.Int64("order.id", row.ID),
		zap.String("order.status", string(row.Status)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if s.corrupt != nil {
		s.corrupt.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(row.Status))))
	}
}

// normalize keeps stored timestamps in UTC at the precision every dialect can hold.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
