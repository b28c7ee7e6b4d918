// Package backend opens the configured Repository.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bryanwahyu/repair-analysis/internal/config"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/infra/db/instrument"
	mysqlp "github.com/bryanwahyu/repair-analysis/internal/infra/db/mysql"
	pg "github.com/bryanwahyu/repair-analysis/internal/infra/db/postgres"
	"github.com/bryanwahyu/repair-analysis/internal/infra/db/sqlite"
	"github.com/bryanwahyu/repair-analysis/internal/infra/postgrest"
	"github.com/bryanwahyu/repair-analysis/internal/middleware"
)

// Backend is an opened repository plus what it needs on shutdown.
type Backend struct {
	Repo   domain.Repository
	Driver string
	Checks map[string]middleware.HealthChecker

	closers []func() error
}

// Close releases connections in reverse order.
func (b *Backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open connects the driver named in cfg. When reg is not nil the repository
// is wrapped with Prometheus instrumentation.
func Open(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Backend, error) {
	b := &Backend{Driver: cfg.Backend.Driver, Checks: map[string]middleware.HealthChecker{}}

	var repo domain.Repository
	switch cfg.Backend.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		b.addSQL(db)
		repo = mysqlp.NewAnalysisRepository(db)

	case config.DriverPostgres, config.DriverPgx:
		db, err := pg.Connect(ctx, cfg.Backend.Driver, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		b.addSQL(db)
		repo = pg.NewAnalysisRepository(db)

	case config.DriverSQLite:
		gdb, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		db, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		b.addSQL(db)
		repo = sqlite.NewAnalysisRepository(gdb)

	case config.DriverPostgREST:
		client := postgrest.NewClient(cfg.PostgREST.URL, cfg.PostgREST.APIKey, cfg.PostgREST.Table)
		b.Checks["database"] = middleware.CheckFunc(func(ctx context.Context) error {
			_, err := client.List(ctx)
			return err
		})
		repo = client

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}

	if reg != nil {
		wrapped, err := instrument.Wrap(repo, cfg.Backend.Driver, reg)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("instrument repository: %w", err)
		}
		repo = wrapped
	}
	b.Repo = repo
	return b, nil
}

func (b *Backend) addSQL(db *sql.DB) {
	b.Checks["database"] = &middleware.PingChecker{DB: db}
	b.closers = append(b.closers, db.Close)
}
