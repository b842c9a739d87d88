package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"khazana/internal/config"
	"khazana/internal/handlers/backup"
	"khazana/internal/handlers/budgets"
	"khazana/internal/handlers/dashboard"
	gatehandlers "khazana/internal/handlers/gate"
	"khazana/internal/handlers/insights"
	"khazana/internal/handlers/transactions"
	apphttp "khazana/internal/http"
	"khazana/internal/logging"
	"khazana/internal/services/account"
	"khazana/internal/services/analytics"
	"khazana/internal/services/exporter"
	"khazana/internal/services/storage"
	"khazana/internal/version"
)

var (
	cfg      *config.Config
	registry *account.Registry
	now      = time.Now
)

func main() {
	c := config.Load()
	logging.Setup(c.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := serve(ctx, c)
	stop()
	os.Exit(code)
}

// serve runs the server until ctx is cancelled and returns the process exit
// code. Storage is closed before it returns.
func serve(ctx context.Context, c *config.Config) int {
	logger := logging.For(logging.ComponentHTTP)

	if err := c.Validate(); err != nil {
		logger.Error("invalid configuration", logging.FieldError, err)
		return 1
	}

	if err := SetupDependencies(c); err != nil {
		logger.Error("failed to set up dependencies", logging.FieldError, err)
		return 1
	}
	defer registry.Close()

	logger.Info("starting khazana",
		"version", version.Get().String(),
		"addr", c.ListenAddr,
		"backend", c.Backend)

	if err := run(ctx, SetupRouter()); err != nil {
		logger.Error("server error", logging.FieldError, err)
		return 1
	}
	logger.Info("server stopped gracefully")
	return 0
}

// run serves until ctx is cancelled, then drains in-flight requests
func run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// SetupDependencies opens storage and initializes the handler packages
func SetupDependencies(c *config.Config) error {
	cfg = c

	backend, err := storage.Open(c)
	if err != nil {
		return err
	}
	registry = account.NewRegistry(backend, now)

	svc := analytics.New(c.Currency)
	exp := exporter.New(c.Currency, now)

	dashboard.Initialize(now, c.Currency)
	budgets.Initialize(svc)
	insights.Initialize(svc, now)
	backup.Initialize(c, exp, now)
	return nil
}

// SetupRouter builds the HTTP router. SetupDependencies must run first.
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/api/health", backup.HandleHealth)
	r.Get("/api/version", backup.HandleVersion)

	r.Route("/api/users/{user}", func(r chi.Router) {
		r.Use(apphttp.WithAccount(registry))

		transactions.RegisterRoutes(r)
		gatehandlers.RegisterRoutes(r)
		dashboard.RegisterRoutes(r)
		budgets.RegisterRoutes(r)
		insights.RegisterRoutes(r)
		backup.RegisterRoutes(r)
	})

	return r
}
