// Package postest builds a fully wired point-of-sale service over sqlite for
// transport and command tests.
package postest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/cache"
	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/database"
	"github.com/Additional-Code/kusina/internal/queue"
	menurepo "github.com/Additional-Code/kusina/internal/repository/menu"
	orderrepo "github.com/Additional-Code/kusina/internal/repository/order"
	"github.com/Additional-Code/kusina/internal/service/pos"
	"github.com/Additional-Code/kusina/internal/store"
	"github.com/Additional-Code/kusina/internal/testutil"
)

// Kitchen bundles a service with the pieces tests poke at directly.
type Kitchen struct {
	Service *pos.Service
	Store   *store.Store
	Queue   *queue.Queue
	Conns   *database.Connections
	Clock   *testutil.Clock
}

// Start is the first clock reading handed to the store.
var Start = time.Date(2024, time.March, 5, 1, 0, 0, 0, time.UTC)

// New returns a loaded kitchen in UTC with caching and messaging disabled.
func New(t testing.TB) Kitchen {
	t.Helper()
	logger := zaptest.NewLogger(t)

	conns := testutil.OpenSQLite(t)
	clock := testutil.NewClock(Start)
	st := store.New(menurepo.NewRepository(conns), orderrepo.NewRepository(conns), logger, store.WithClock(clock.Now))
	q := queue.New(st, logger)
	require.NoError(t, q.Load(context.Background()))

	svc := pos.NewService(pos.Params{
		Store:  st,
		Queue:  q,
		Cache:  cache.Noop(),
		Config: config.Config{Kitchen: config.Kitchen{Location: time.UTC}},
		Logger: logger,
	})
	return Kitchen{Service: svc, Store: st, Queue: q, Conns: conns, Clock: clock}
}
