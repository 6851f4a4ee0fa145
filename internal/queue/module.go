package queue

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/migration"
	"github.com/Additional-Code/kusina/internal/store"
)

// Module provides the order queue and fills it from the store on start.
var Module = fx.Provide(Provide)

// Provide builds the queue over the store. The migrator is requested so its
// start hook, when enabled, runs before the queue reads the orders table.
func Provide(lc fx.Lifecycle, st *store.Store, _ *migration.Migrator, logger *zap.Logger) *Queue {
	q := New(st, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return q.Load(ctx)
		},
	})
	return q
}
