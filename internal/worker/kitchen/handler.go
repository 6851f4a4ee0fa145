// Package kitchen holds the worker handlers for kitchen events.
package kitchen

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/cache"
	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/messaging"
	"github.com/Additional-Code/kusina/internal/worker"
)

var (
	workerTracer = otel.Tracer("github.com/Additional-Code/kusina/worker/kitchen")
	workerMeter  = otel.Meter("github.com/Additional-Code/kusina/worker/kitchen")
)

// Module registers kitchen event handlers.
var Module = fx.Module("worker_kitchen",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventHandler consumes kitchen events, counting them and dropping the
// cached views each one makes stale.
func NewEventHandler(client messaging.Client, store cache.Store, cfg config.Config, logger *zap.Logger) worker.HandlerRegistration {
	consumed, err := workerMeter.Int64Counter("kusina.events.consumed",
		metric.WithDescription("Kitchen events processed by the worker"))
	if err != nil {
		logger.Warn("events counter unavailable", zap.Error(err))
	}

	loc := cfg.Kitchen.Location
	if loc == nil {
		loc = time.UTC
	}

	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.kitchen.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		event, err := messaging.DecodeEvent(msg.Value)
		if err != nil {
			logger.Error("failed to decode kitchen event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", string(event.Type)), attribute.String("event.id", event.ID))

		if stale := staleKeys(event, loc); len(stale) > 0 {
			if err := store.Delete(ctx, stale...); err != nil {
				logger.Warn("cache invalidation failed", zap.Strings("keys", stale), zap.Error(err))

				span.RecordError(err)
				span.SetStatus(codes.Error, "cache error")
				return err
			}
		}

		if consumed != nil {
			consumed.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", string(event.Type))))
		}
		logger.Info("kitchen event processed",
			zap.String("event.id", event.ID),
			zap.String("event.type", string(event.Type)),
			zap.Int64("order.id", event.OrderID),
			zap.Int64("menu.id", event.MenuItemID),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   client.Topic(),
		Handler: handler,
	}
}

func staleKeys(event messaging.Event, loc *time.Location) []string {
	switch event.Type {
	case messaging.EventMenuItemAdded, messaging.EventMenuItemDeleted:
		return []string{cache.MenuKey}
	case messaging.EventOrderCompleted:
		return []string{cache.StatsKey(event.OccurredAt.In(loc))}
	default:
		return nil
	}
}
