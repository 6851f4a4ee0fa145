package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/config"
)

var errRabbitClosed = errors.New("rabbitmq connection is not open")

// rabbitClient publishes to a topic exchange and consumes from a durable queue bound to it.
type rabbitClient struct {
	cfg    config.RabbitMQ
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	pub  *amqp.Channel
}

func newRabbitClient(lc fx.Lifecycle, cfg config.RabbitMQ, logger *zap.Logger) *rabbitClient {
	client := &rabbitClient{cfg: cfg, logger: logger}

	lc.Append(fx.Hook{
		OnStart: client.connect,
		OnStop: func(ctx context.Context) error {
			logger.Info("closing rabbitmq client")
			return client.close()
		},
	})

	return client
}

func (r *rabbitClient) connect(context.Context) error {
	conn, err := amqp.Dial(r.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := declareTopology(ch, r.cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn, r.pub = conn, ch
	r.mu.Unlock()

	r.logger.Info("rabbitmq connected", zap.String("exchange", r.cfg.Exchange), zap.String("queue", r.cfg.Queue))
	return nil
}

func (r *rabbitClient) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pub != nil {
		_ = r.pub.Close()
		r.pub = nil
	}
	if r.conn != nil {
		err := r.conn.Close()
		r.conn = nil
		return err
	}
	return nil
}

func declareTopology(ch *amqp.Channel, cfg config.RabbitMQ) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, "#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", cfg.Queue, err)
	}
	return nil
}

func (r *rabbitClient) Publish(ctx context.Context, key []byte, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pub == nil {
		return errRabbitClosed
	}
	return r.pub.PublishWithContext(ctx, r.cfg.Exchange, string(key), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         value,
	})
}

// Consume opens a dedicated channel so prefetch applies per worker.
func (r *rabbitClient) Consume(ctx context.Context, handler Handler) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil || conn.IsClosed() {
		return errRabbitClosed
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(r.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := ch.Consume(r.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.cfg.Queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, fromDelivery(d)); err != nil {
				r.logger.Error("message handler failed", zap.Error(err), zap.String("routing_key", d.RoutingKey))

				// One redelivery, then drop.
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			if err := d.Ack(false); err != nil {
				r.logger.Warn("ack failed", zap.Error(err))
			}
		}
	}
}

func (r *rabbitClient) Topic() string { return r.cfg.Exchange }

func fromDelivery(d amqp.Delivery) Message {
	msg := Message{
		Topic:  d.Exchange,
		Key:    []byte(d.RoutingKey),
		Value:  append([]byte(nil), d.Body...),
		Offset: int64(d.DeliveryTag),
		Time:   d.Timestamp,
	}
	if len(d.Headers) > 0 {
		msg.Headers = make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			msg.Headers[k] = fmt.Sprint(v)
		}
	}
	return msg
}
