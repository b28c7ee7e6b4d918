package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repair-analysis/internal/config"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

func sqliteConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Backend.Driver = config.DriverSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "analyses.db")
	return cfg
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	b, err := Open(ctx, sqliteConfig(t), reg)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Repo.Create(ctx, domain.Fields{
		Device: "HD", Analysis: "a", Category: domain.CategoryLogical, Severity: domain.SeveritySimple,
	}))
	list, err := b.Repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.Contains(t, b.Checks, "database")
	assert.NoError(t, b.Checks["database"].Check(ctx))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Backend.Driver = "oracle"
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestOpenPostgRESTIsLazy(t *testing.T) {
	cfg := &config.Config{}
	cfg.Backend.Driver = config.DriverPostgREST
	cfg.PostgREST.URL = "http://127.0.0.1:1"
	cfg.PostgREST.Table = "analyses"

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
	assert.Contains(t, b.Checks, "database")
}
