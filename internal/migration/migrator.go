package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordenes/internal/config"
	"github.com/Additional-Code/ordenes/internal/database"
)

// Module wires the migrator.
var Module = fx.Provide(New)

// AutoModule additionally applies pending migrations on start when
// DB_AUTO_MIGRATE is set.
var AutoModule = fx.Options(
	Module,
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, m *Migrator) {
		if !cfg.Database.AutoMigrate {
			return
		}
		lc.Append(fx.Hook{OnStart: m.Up})
	}),
)

// Migrator wraps goose operations.
type Migrator struct {
	provider *goose.Provider
	logger   *zap.Logger
}

// New constructs a goose-backed migrator over the schema migrations of this
// service.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, conns.Writer.DB, nil,
		goose.WithGoMigrations(migrations(conns.Writer)...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{
		provider: provider,
		logger:   logger,
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return err
	}

	if len(results) == 0 {
		m.logger.Info("no migrations to apply")

		return nil
	}

	m.logger.Info("migrations applied", zap.Int("count", len(results)))

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		if _, err := m.provider.DownTo(ctx, 0); err != nil {
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
		if _, err := m.provider.Down(ctx); err != nil {
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

// Status logs the state of every known migration and returns the current
// schema version.
func (m *Migrator) Status(ctx context.Context) (int64, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return 0, err
	}
	for _, st := range statuses {
		m.logger.Info("migration",
			zap.Int64("version", st.Source.Version),
			zap.String("state", string(st.State)),
			zap.Time("applied_at", st.AppliedAt),
		)
	}
	return m.provider.GetDBVersion(ctx)
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres", "pg":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
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

// goFunc adapts a bun callback to goose; the bun handle shares the pool goose runs on.
func goFunc(db *bun.DB, fn func(ctx context.Context, db *bun.DB) error) *goose.GoFunc {
	return &goose.GoFunc{
		RunDB: func(ctx context.Context, _ *sql.DB) error {
			return fn(ctx, db)
		},
	}
}
