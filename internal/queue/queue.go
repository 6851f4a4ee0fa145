// Package queue keeps the kitchen's pending orders in FIFO order in memory,
// mirrored from the store.
package queue

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/entity"
)

var (
	queueTracer = otel.Tracer("github.com/Additional-Code/kusina/queue")
	queueMeter  = otel.Meter("github.com/Additional-Code/kusina/queue")
)

// Backend is the durable side of the queue.
type Backend interface {
	Now() time.Time
	CreateOrder(ctx context.Context, draft entity.OrderDraft) (*entity.Order, error)
	ListPendingOrders(ctx context.Context) ([]entity.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status entity.OrderStatus) (time.Time, error)
}

// Queue is the in-memory FIFO of pending orders.
//
// The head is always the oldest pending order. Every mutation reaches the
// backend before the in-memory sequence changes, so a failed write leaves the
// queue as it was.
type Queue struct {
	backend Backend
	logger  *zap.Logger

	mu     sync.Mutex
	orders []entity.Order
	loaded bool

	placed    metric.Int64Counter
	completed metric.Int64Counter
}

// New builds an empty queue over backend. Call Load before serving.
func New(backend Backend, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{backend: backend, logger: logger}

	var err error
	if q.placed, err = queueMeter.Int64Counter("kusina.orders.placed",
		metric.WithDescription("Orders accepted into the kitchen queue")); err != nil {
		logger.Warn("placed counter unavailable", zap.Error(err))
	}
	if q.completed, err = queueMeter.Int64Counter("kusina.orders.completed",
		metric.WithDescription("Orders served from the head of the kitchen queue")); err != nil {
		logger.Warn("completed counter unavailable", zap.Error(err))
	}
	if _, err = queueMeter.Int64ObservableGauge("kusina.queue.depth",
		metric.WithDescription("Pending orders held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(q.Size()))
			return nil
		})); err != nil {
		logger.Warn("queue depth gauge unavailable", zap.Error(err))
	}

	return q
}

// Load replaces the in-memory sequence with the store's pending orders. The lock
// is held across the read so no enqueue or dequeue lands between read and swap.
func (q *Queue) Load(ctx context.Context) error {
	ctx, span := queueTracer.Start(ctx, "Queue.Load")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.backend.ListPendingOrders(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}
	q.orders = pending
	q.loaded = true

	span.SetAttributes(attribute.Int("queue.size", len(pending)))
	q.logger.Info("order queue loaded", zap.Int("pending", len(pending)))
	return nil
}

// Refresh reloads the queue, picking up changes made to the store out of band.
func (q *Queue) Refresh(ctx context.Context) error {
	return q.Load(ctx)
}

// Loaded reports whether the queue has been filled from the store at least once.
func (q *Queue) Loaded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loaded
}

// Enqueue persists a new pending order and appends it to the tail.
func (q *Queue) Enqueue(ctx context.Context, customer string, items []entity.LineItem, total float64) (entity.Order, error) {
	ctx, span := queueTracer.Start(ctx, "Queue.Enqueue", trace.WithAttributes(
		attribute.String("order.customer", customer),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	order, err := q.backend.CreateOrder(ctx, entity.OrderDraft{
		CustomerName: customer,
		Items:        items,
		TotalPrice:   total,
		PlacedAt:     q.backend.Now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return entity.Order{}, err
	}

	q.orders = append(q.orders, *order)
	if q.placed != nil {
		q.placed.Add(ctx, 1)
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.Int("queue.size", len(q.orders)))
	q.logger.Info("order queued",
		zap.Int64("order.id", order.ID),
		zap.String("customer", order.CustomerName),
		zap.Int("queue.size", len(q.orders)),
	)
	return *order, nil
}

// Dequeue completes the order at the head and removes it.
//
// The completion is written first; if that fails the head stays in place and the
// error is returned. An order already completed elsewhere is dropped from the
// head and the next one is tried. ok is false when nothing was pending.
func (q *Queue) Dequeue(ctx context.Context) (entity.Order, bool, error) {
	ctx, span := queueTracer.Start(ctx, "Queue.Dequeue")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.orders) > 0 {
		head := q.orders[0]
		at, err := q.backend.SetOrderStatus(ctx, head.ID, entity.StatusCompleted)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			q.logger.Error("order completion failed; keeping queue head",
				zap.Int64("order.id", head.ID), zap.Error(err))
			return entity.Order{}, false, err
		}

		q.orders[0] = entity.Order{}
		q.orders = q.orders[1:]

		if at.IsZero() {
			q.logger.Warn("dropping queue head no longer pending in store", zap.Int64("order.id", head.ID))
			continue
		}

		head.Status = entity.StatusCompleted
		head.UpdatedAt = at
		head.CompletedAt = at
		if q.completed != nil {
			q.completed.Add(ctx, 1)
		}

		span.SetAttributes(attribute.Int64("order.id", head.ID), attribute.Int("queue.size", len(q.orders)))
		q.logger.Info("order served",
			zap.Int64("order.id", head.ID),
			zap.String("customer", head.CustomerName),
			zap.Int("queue.size", len(q.orders)),
		)
		return head, true, nil
	}

	return entity.Order{}, false, nil
}

// Size returns the number of pending orders held in memory.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// All returns a copy of the pending orders, head first.
func (q *Queue) All() []entity.Order {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]entity.Order, len(q.orders))
	copy(out, q.orders)
	return out
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (entity.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.orders) == 0 {
		return entity.Order{}, false
	}
	return q.orders[0], true
}
