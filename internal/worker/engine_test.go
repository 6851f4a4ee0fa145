package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/messaging"
)

// scriptedClient hands each queued message to the first consumer that asks.
type scriptedClient struct {
	mu      sync.Mutex
	pending []messaging.Message
}

func (c *scriptedClient) Publish(context.Context, []byte, []byte) error { return nil }

func (c *scriptedClient) Consume(ctx context.Context, handler messaging.Handler) error {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, msg := range batch {
		_ = handler(ctx, msg)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *scriptedClient) Topic() string { return "kusina.events" }

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 2},
	}}
}

func TestEngineDispatchesByTopic(t *testing.T) {
	client := &scriptedClient{pending: []messaging.Message{
		{Topic: "kusina.events", Value: []byte(`{"type":"order.placed"}`)},
		{Topic: "elsewhere", Value: []byte(`{}`)},
	}}

	got := make(chan messaging.Message, 2)
	engine := NewEngine(Params{
		Client: client,
		Logger: zaptest.NewLogger(t),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Topic: "kusina.events", Handler: func(_ context.Context, msg messaging.Message) error {
				got <- msg
				return nil
			}},
			{Topic: "", Handler: nil},
		},
	})

	require.NoError(t, engine.start(context.Background()))
	select {
	case msg := <-got:
		assert.Equal(t, "kusina.events", msg.Topic)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, engine.stop(stopCtx))
	assert.Empty(t, got)
}

func TestEngineStaysIdleWhenDisabled(t *testing.T) {
	engine := NewEngine(Params{
		Client:        &scriptedClient{},
		Logger:        zaptest.NewLogger(t),
		Config:        config.Config{},
		Registrations: []HandlerRegistration{{Topic: "kusina.events", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	require.NoError(t, engine.stop(context.Background()))
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	engine := NewEngine(Params{
		Client: &scriptedClient{},
		Logger: zaptest.NewLogger(t),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Topic: "kusina.events", Handler: func(context.Context, messaging.Message) error { panic("boom") }},
		},
	})

	err := engine.dispatch(context.Background(), 0, messaging.Message{Topic: "kusina.events"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.NoError(t, engine.dispatch(context.Background(), 0, messaging.Message{Topic: "unknown"}))
}

// failingClient errors on the first attempts, then blocks like a healthy consumer.
type failingClient struct {
	mu       sync.Mutex
	failures int
	attempts int
}

func (c *failingClient) Publish(context.Context, []byte, []byte) error { return nil }

func (c *failingClient) Consume(ctx context.Context, _ messaging.Handler) error {
	c.mu.Lock()
	c.attempts++
	fail := c.attempts <= c.failures
	c.mu.Unlock()
	if fail {
		return assert.AnError
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *failingClient) Topic() string { return "kusina.events" }

func (c *failingClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func TestConsumerReconnectsAfterErrors(t *testing.T) {
	client := &failingClient{failures: 2}
	cfg := enabledConfig()
	cfg.Messaging.Workers.Concurrency = 1
	cfg.Messaging.Workers.PollInterval = 10 * time.Millisecond

	engine := NewEngine(Params{
		Client:        client,
		Logger:        zaptest.NewLogger(t),
		Config:        cfg,
		Registrations: []HandlerRegistration{{Topic: "kusina.events", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Eventually(t, func() bool { return client.count() == 3 }, 5*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, engine.stop(stopCtx))
}
