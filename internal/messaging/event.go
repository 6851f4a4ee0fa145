package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/config"
)

// EventType names what happened in the kitchen.
type EventType string

const (
	EventOrderPlaced     EventType = "order.placed"
	EventOrderCompleted  EventType = "order.completed"
	EventMenuItemAdded   EventType = "menu.item_added"
	EventMenuItemDeleted EventType = "menu.item_deleted"
)

// Event is the envelope published for every kitchen change.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    int64     `json:"order_id,omitempty"`
	MenuItemID int64     `json:"menu_item_id,omitempty"`
	Customer   string    `json:"customer,omitempty"`
	Total      float64   `json:"total,omitempty"`
}

// Key returns the partition/routing key, keeping one order's events together.
func (e Event) Key() string {
	switch {
	case e.OrderID != 0:
		return fmt.Sprintf("%s.%d", e.Type, e.OrderID)
	case e.MenuItemID != 0:
		return fmt.Sprintf("%s.%d", e.Type, e.MenuItemID)
	default:
		return string(e.Type)
	}
}

// DecodeEvent parses a message body into an Event.
func DecodeEvent(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}

// Publisher emits kitchen events. Failures are logged, never returned: the
// store already holds the truth and events only drive cache upkeep.
type Publisher struct {
	client  Client
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher wraps the configured client.
func NewPublisher(client Client, cfg config.Config, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		enabled: cfg.Messaging.Enabled,
		logger:  logger,
		now:     time.Now,
	}
}

// Publish stamps e with an id and time, when missing, and sends it.
func (p *Publisher) Publish(ctx context.Context, e Event) {
	if p == nil || !p.enabled || p.client == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("marshal event", zap.String("event.type", string(e.Type)), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, []byte(e.Key()), payload); err != nil {
		p.logger.Error("publish event",
			zap.String("event.type", string(e.Type)),
			zap.String("event.id", e.ID),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("event published", zap.String("event.type", string(e.Type)), zap.String("event.id", e.ID))
}
