// Package worker runs the background consumers that react to kitchen events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/logger"
	"github.com/Additional-Code/kusina/internal/messaging"
)

const (
	instrumentationName = "github.com/Additional-Code/kusina/internal/worker"
	maxBackoff          = 30 * time.Second
)

// HandlerRegistration binds a topic to the handler that consumes it.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects the engine dependencies; handlers arrive through the worker.handlers group.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine fans consumption out over a fixed number of goroutines.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	cfg      config.Worker
	enabled  bool
	handlers map[string]messaging.Handler
	tracer   trace.Tracer
	handled  metric.Int64Counter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{OnStart: engine.start, OnStop: engine.stop})
	}),
)

// NewEngine builds the engine. Registrations without a topic or handler are dropped.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		if _, dup := handlers[r.Topic]; dup {
			p.Logger.Warn("duplicate worker handler; keeping the first", zap.String("topic", r.Topic))
			continue
		}
		handlers[r.Topic] = r.Handler
	}

	handled, err := otel.Meter(instrumentationName).Int64Counter("kusina.worker.messages",
		metric.WithDescription("Messages handled by the worker engine, by topic and outcome."))
	if err != nil {
		p.Logger.Warn("worker counter unavailable", zap.Error(err))
	}

	return &Engine{
		client:   p.Client,
		logger:   p.Logger.Named("worker"),
		cfg:      p.Config.Messaging.Workers,
		enabled:  p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		handlers: handlers,
		tracer:   otel.Tracer(instrumentationName),
		handled:  handled,
	}
}

func (e *Engine) start(context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	workers := max(e.cfg.Concurrency, 1)
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for id := range workers {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consume(runCtx, id)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", workers))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// consume keeps one consumer attached to the bus, backing off between failures.
func (e *Engine) consume(ctx context.Context, id int) {
	backoff := max(e.cfg.PollInterval, 10*time.Millisecond)
	for {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, id, msg)
		})
		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}

		e.logger.Error("consumer stopped; reconnecting",
			zap.Int("worker", id),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (e *Engine) dispatch(ctx context.Context, id int, msg messaging.Message) (err error) {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		e.record(ctx, msg.Topic, "unrouted")
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "worker.dispatch", trace.WithAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.Int("worker.id", id),
	))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WithTrace(ctx, e.logger).Error("message handling failed",
				zap.String("topic", msg.Topic),
				zap.ByteString("key", msg.Key),
				zap.Error(err),
			)
		} else {
			logger.WithTrace(ctx, e.logger).Debug("message handled",
				zap.String("topic", msg.Topic),
				zap.Int("worker", id),
				zap.Duration("took", time.Since(started)),
			)
		}
		e.record(ctx, msg.Topic, outcome)
		span.End()
	}()

	return handler(ctx, msg)
}

func (e *Engine) record(ctx context.Context, topic, outcome string) {
	if e.handled == nil {
		return
	}
	e.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("outcome", outcome),
	))
}
