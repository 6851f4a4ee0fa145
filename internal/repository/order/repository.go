package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/kusina/internal/database"
	"github.com/Additional-Code/kusina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/kusina/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order using the write connection and fills in its id.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.customer", order.CustomerName)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return nil
}

// GetByID fetches an order by primary key. Items are left encoded.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListByStatus returns orders in a status ordered by their last transition time.
// Ties are broken by id so orders placed within the same instant keep insertion order.
func (r *Repository) ListByStatus(ctx context.Context, status entity.OrderStatus, newestFirst bool) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByStatus", trace.WithAttributes(
		attribute.String("order.status", string(status)),
		attribute.Bool("order.newest_first", newestFirst),
	))
	defer span.End()

	direction := "ASC"
	if newestFirst {
		direction = "DESC"
	}

	var orders []entity.Order
	err := r.reader.NewSelect().
		Model(&orders).
		Where("status = ?", status).
		Order("updated_at "+direction, "id "+direction).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

// Complete moves a pending order to completed, stamping at as its transition time.
// It reports false when no pending order with that id exists.
func (r *Repository) Complete(ctx context.Context, id int64, at time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Complete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", entity.StatusCompleted).
		Set("updated_at = ?", at).
		Set("completed_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", entity.StatusPending).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows affected unavailable")
		return false, err
	}
	return affected > 0, nil
}

// CompletedTotals counts completed orders whose last transition falls in [from, to)
// and sums their totals.
func (r *Repository) CompletedTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CompletedTotals", trace.WithAttributes(
		attribute.String("range.from", from.Format(time.RFC3339)),
		attribute.String("range.to", to.Format(time.RFC3339)),
	))
	defer span.End()

	var (
		count   int
		revenue float64
	)
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(total_price), 0.0)").
		Where("status = ?", entity.StatusCompleted).
		Where("updated_at >= ?", from.UTC()).
		Where("updated_at < ?", to.UTC()).
		Scan(ctx, &count, &revenue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return 0, 0, err
	}
	return count, revenue, nil
}
