package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/features"
	"perfreview/internal/domain/kpi"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/platform/config"
	"perfreview/internal/platform/db"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/platform/querier"
	featureshandler "perfreview/internal/transport/http/handlers/features"
	kpishandler "perfreview/internal/transport/http/handlers/kpis"
	ratingshandler "perfreview/internal/transport/http/handlers/ratings"
	"perfreview/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *db.Pool
	Metrics *metrics.Collector
	Router  http.Handler
}

// Deps are the collaborators the router needs. Ping backs /readyz.
type Deps struct {
	DB      querier.TxQuerier
	Ping    func(ctx context.Context) error
	Metrics *metrics.Collector
}

// New connects to Postgres, applies migrations when enabled and builds the
// router. Callers must Close the returned App.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := NewRouter(cfg, Deps{DB: pool, Ping: pool.Ping, Metrics: collector})
	return &App{Config: cfg, DB: pool, Metrics: collector, Router: router}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	featureStore := features.NewStore(deps.DB)
	resolver := features.NewResolver(featureStore, cfg.Review.DefaultFeatures)
	kpiService := kpi.NewService(
		kpi.NewStore(deps.DB),
		resolver,
		deps.Metrics,
		cfg.Review.Scale(),
		lifecycle.Options{ConfirmationRequired: cfg.Review.ConfirmationRequired},
	)
	if deps.DB != nil {
		kpiService.Audit = audit.New(deps.DB)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(middleware.Instrument(deps.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ping == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.ReviewMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		ratingshandler.NewHandler(deps.Metrics).RegisterRoutes(r)
		featureshandler.NewHandler(resolver, featureStore).RegisterRoutes(r)
		kpishandler.NewHandler(kpiService).RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured shutdown timeout.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfreview server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
