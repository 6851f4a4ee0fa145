package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/cache"
	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/database"
	"github.com/Additional-Code/kusina/internal/logger"
	"github.com/Additional-Code/kusina/internal/messaging"
	"github.com/Additional-Code/kusina/internal/migration"
	"github.com/Additional-Code/kusina/internal/observability"
	"github.com/Additional-Code/kusina/internal/queue"
	repositorymenu "github.com/Additional-Code/kusina/internal/repository/menu"
	repositoryorder "github.com/Additional-Code/kusina/internal/repository/order"
	"github.com/Additional-Code/kusina/internal/seeder"
	grpcserver "github.com/Additional-Code/kusina/internal/server/grpc"
	httpserver "github.com/Additional-Code/kusina/internal/server/http"
	"github.com/Additional-Code/kusina/internal/service/pos"
	"github.com/Additional-Code/kusina/internal/store"
	transporthttp "github.com/Additional-Code/kusina/internal/transport/http"
	"github.com/Additional-Code/kusina/internal/worker"
	workerkitchen "github.com/Additional-Code/kusina/internal/worker/kitchen"
)

// Base provides configuration, logging, telemetry, cache and messaging.
var Base = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	messaging.Module,
	// Telemetry providers must be installed even when no component asks for the manager.
	fx.Invoke(func(*observability.Manager) {}),
)

// Core provides the kitchen itself: storage, the order queue and the POS service.
var Core = fx.Options(
	Base,
	database.Module,
	migration.Module,
	repositorymenu.Module,
	repositoryorder.Module,
	store.Module,
	queue.Module,
	pos.Module,
)

// FxLogger routes Fx lifecycle events through zap for long-running processes.
var FxLogger = fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
})

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	FxLogger,
	seeder.Module,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Base,
	FxLogger,
	worker.Module,
	workerkitchen.Module,
)

// Module is the default application wiring.
var Module = HTTP
