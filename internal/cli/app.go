package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"go.uber.org/zap"

	appanalyses "github.com/bryanwahyu/repair-analysis/internal/application/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/config"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/infra/ai"
	"github.com/bryanwahyu/repair-analysis/internal/infra/backend"
	minioStore "github.com/bryanwahyu/repair-analysis/internal/infra/storage"
	"github.com/bryanwahyu/repair-analysis/internal/logging"
)

// app is what every subcommand shares: one controller over the configured backend.
type app struct {
	cfgPath string
	output  string

	log *zap.Logger
	be  *backend.Backend
	ctl *appanalyses.Controller
}

// open loads config, connects the backend and performs the initial list.
func (a *app) open(ctx context.Context, status io.Writer) error {
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// console logs, quieter than the server
	level := cfg.Log.Level
	if level == "info" {
		level = "warn"
	}
	a.log, err = logging.New(level, "console")
	if err != nil {
		return err
	}

	s := newSpinner(status, " Connecting to "+cfg.Backend.Driver+" backend...")
	s.Start()
	a.be, err = backend.Open(ctx, cfg, nil)
	s.Stop()
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}

	opts := []appanalyses.Option{
		appanalyses.WithAdvisor(ai.NewAdvisor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)),
	}
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx, cfg.Minio.Endpoint, cfg.Minio.Region, cfg.Minio.BucketName,
			cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		opts = append(opts, appanalyses.WithArchive(store))
	}
	a.ctl = appanalyses.NewController(a.be.Repo, a.log, opts...)

	return a.spin(status, " Loading analyses...", func() error { return a.ctl.Init(ctx) })
}

func (a *app) close() {
	if a.be != nil {
		_ = a.be.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// spin runs fn behind a spinner on status. The spinner stays silent when
// status is not a terminal.
func (a *app) spin(status io.Writer, suffix string, fn func() error) error {
	s := newSpinner(status, suffix)
	s.Start()
	defer s.Stop()
	return fn()
}

func newSpinner(w io.Writer, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	return s
}

// find returns the record with id from the loaded store.
func (a *app) find(id string) (domain.Analysis, error) {
	rec, ok := a.ctl.Store().Find(domain.ID(id))
	if !ok {
		return domain.Analysis{}, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}
