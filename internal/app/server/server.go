package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"bizdash/internal/domain/audit"
	"bizdash/internal/domain/auth"
	"bizdash/internal/domain/payroll"
	"bizdash/internal/platform/cache"
	"bizdash/internal/platform/config"
	"bizdash/internal/platform/db"
	"bizdash/internal/platform/jobs"
	"bizdash/internal/platform/logging"
	"bizdash/internal/platform/metrics"
	payrollhandler "bizdash/internal/transport/http/handlers/payroll"
	"bizdash/internal/transport/http/middleware"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs. Ready may be nil, in which case
// /readyz always answers ready.
type Deps struct {
	Config  config.Config
	Logger  *slog.Logger
	Payroll *payrollhandler.Handler
	Metrics *metrics.Collector
	Ready   Pinger
}

// Run loads configuration, connects the stores and serves HTTP until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.New(cfg)

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	var statementCache payroll.StatementCache
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		statementCache = cache.NewStatementCache(client, cfg.StatementCacheTTL)
	} else {
		logger.Info("statement cache disabled, REDIS_ADDR not set")
	}

	collector := metrics.New()
	store := payroll.NewStore(pool)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	queue := jobs.New(store, 64)
	queue.Start(workerCtx)
	defer func() {
		stopWorkers()
		queue.Wait()
	}()

	svc := payroll.NewService(store, statementCache, collector)
	handler := payrollhandler.NewHandler(svc, audit.New(pool), queue, auth.StaticPermissions{}, cfg.StatementDir)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(Deps{Config: cfg, Logger: logger, Payroll: handler, Metrics: collector, Ready: pool}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	return srv.Shutdown(shutdownCtx)
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(deps.Metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

		if deps.Payroll != nil {
			deps.Payroll.RegisterRoutes(r)
		}
	})

	return router
}
