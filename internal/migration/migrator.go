package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	migrations "github.com/Additional-Code/kusina/db/migrations"
	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/database"
)

// Migrator wraps goose operations over the embedded migration files.
type Migrator struct {
	db     *bun.DB
	dir    string
	logger *zap.Logger
}

// Module provides the migrator and, when enabled, applies pending migrations on start.
var Module = fx.Provide(Provide)

// Provide builds the Migrator and registers the auto-migrate hook.
func Provide(lc fx.Lifecycle, cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	m, err := New(cfg.Database.Driver, conns, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		lc.Append(fx.Hook{OnStart: m.Up})
	}
	return m, nil
}

// New constructs a goose-backed migrator for the given driver.
func New(driver string, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}

	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: logger})

	return &Migrator{
		db:     conns.Writer,
		dir:    dir,
		logger: logger,
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db.DB, m.dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	m.logger.Info("migrations applied", zap.String("dir", m.dir))

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		if err := goose.DownToContext(ctx, m.db.DB, m.dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))

		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, m.db.DB, m.dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))

	return nil
}

func gooseDialect(driver string) (dialect string, dir string, err error) {
	switch driver {
	case "postgres", "pg", "pgx":
		return "postgres", "postgres", nil
	case "mysql":
		return "mysql", "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migrations")
}

type gooseLogger struct {
	logger *zap.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), zap.String("component", "goose"))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)), zap.String("component", "goose"))
}
