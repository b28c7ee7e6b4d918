package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	appanalyses "github.com/bryanwahyu/repair-analysis/internal/application/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/config"
	"github.com/bryanwahyu/repair-analysis/internal/infra/ai"
	"github.com/bryanwahyu/repair-analysis/internal/infra/backend"
	"github.com/bryanwahyu/repair-analysis/internal/infra/events"
	"github.com/bryanwahyu/repair-analysis/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/repair-analysis/internal/infra/storage"
	"github.com/bryanwahyu/repair-analysis/internal/logging"
	"github.com/bryanwahyu/repair-analysis/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// open backend (mysql / postgres / pgx / sqlite / postgrest)
	be, err := backend.Open(ctx, cfg, reg)
	if err != nil {
		return fmt.Errorf("backend %s: %w", cfg.Backend.Driver, err)
	}
	defer be.Close()

	opts := []appanalyses.Option{}

	// events: NATS kalau ada, selalu log juga
	notifiers := events.Multi{events.NewLog(logger)}
	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		notifiers = append(notifiers, nc)
	}
	opts = append(opts, appanalyses.WithNotifier(notifiers))

	// init minio (optional)
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init error: %w", err)
		}
		opts = append(opts, appanalyses.WithArchive(store))
	}

	opts = append(opts, appanalyses.WithAdvisor(ai.NewAdvisor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)))

	ctl := appanalyses.NewController(be.Repo, logger, opts...)
	if err := ctl.Init(ctx); err != nil {
		// keep serving; the state carries the error and /v1/refresh retries
		logger.Warn("initial load failed", zap.Error(err))
	}

	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return err
	}
	handler := httpserver.NewRouter(httpserver.Deps{
		Controller:     ctl,
		Log:            logger,
		Checks:         be.Checks,
		Metrics:        metrics,
		Limiter:        middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("backend", be.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
