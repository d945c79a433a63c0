package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/oceanbites/oceanbites-backend/api/routes"
	cartsvc "github.com/oceanbites/oceanbites-backend/internal/cart"
	"github.com/oceanbites/oceanbites-backend/internal/tracking"
	"github.com/oceanbites/oceanbites-backend/pkg/config"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
	"github.com/oceanbites/oceanbites-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, closeStore, err := newStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, err := cartsvc.NewRepo(cartsvc.RepoParams{
		Store:     store,
		Namespace: cfg.Cart.Namespace,
		Logger:    logg,
		Metrics:   metrics.NewPersistenceMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repo", err)
		os.Exit(1)
	}

	cartStore, err := cartsvc.NewStore(context.Background(), repo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	var submitter tracking.Submitter
	if cfg.Remote.Configured() {
		submitter = tracking.NewHTTPSubmitter(cfg.Remote.APIBaseURL, cfg.Remote.Timeout)
	}

	tracker, err := tracking.NewService(tracking.ServiceParams{
		Store:            store,
		Namespace:        cfg.Cart.Namespace,
		Cart:             cartStore,
		Submitter:        submitter,
		Logger:           logg,
		Metrics:          metrics.NewTrackerMetrics(registry),
		Interval:         cfg.Tracking.TickInterval,
		StreamConfigured: cfg.Remote.StreamConfigured(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order tracker", err)
		os.Exit(1)
	}
	tracker.Resume(context.Background())

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
	})
	logg.Info(ctx, "starting api server")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, store, cartStore, tracker, metricsHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
		tracker.Close()
		errs = multierr.Append(errs, closeStore())
		if errs != nil {
			logg.Error(ctx, "shutdown completed with errors", errs)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

// newStore picks the durable backend from config. The memory driver is
// for demos and tests only; state dies with the process.
func newStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		store, err := kv.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StorageDriverMemory:
		return kv.NewMemory(), func() error { return nil }, nil
	default:
		store, err := kv.NewGorm(ctx, cfg.Storage, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}
