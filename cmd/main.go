package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/assess/internal/adapters/http/api"
	"github.com/okian/assess/internal/adapters/http/swagger"
	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/config"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/pkg/logger"
	"github.com/okian/assess/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	if err := metrics.RegisterRuntimeCollectors(); err != nil {
		log.Warn(ctx, "runtime metrics unavailable", logger.Error(err))
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newService loads the catalog and starts the assessment service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	reg, err := catalog.LoadRegistry(cfg.CatalogDir)
	if err != nil {
		return nil, err
	}
	svc := service.New(
		service.WithRegistry(reg),
		service.WithLogger(log),
		service.WithShareBaseURL(cfg.ShareBaseURL),
		service.WithShareCacheSize(cfg.ShareCacheSize),
		service.WithBatchWorkers(cfg.BatchWorkers),
		service.WithMaxBatchSize(cfg.MaxBatchSize),
		service.WithAllowPartial(cfg.AllowPartialAnswers),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	log.Info(ctx, "catalog loaded",
		logger.Int("tests", reg.Len()),
		logger.String("catalog_dir", cfg.CatalogDir),
	)
	return svc, nil
}

// newMux registers the docs and business API routes.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}
