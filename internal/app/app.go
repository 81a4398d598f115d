// Package app wires the WeatherScent components together and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/api"
	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/scheduler"
	"github.com/edgard/weatherscent/internal/weather"
)

// App owns the HTTP server and every long-lived dependency behind it.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     database.Store
	results   cache.ResultStore[model.CombinedResult]
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// New builds the application. The storage backend, result cache and AI
// provider are selected here, once, from cfg.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	start := time.Now()
	log = log.With("component", "app")

	store, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	results, err := cache.New[model.CombinedResult](ctx, cfg.Cache, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	completer, err := ai.NewCompleter(ctx, cfg.AI, log)
	if err != nil {
		_ = results.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}
	advisor := ai.NewAdvisor(completer, cfg.AI, log)

	sched, err := scheduler.New(log, cfg.Scheduler, scheduler.RegisterAllTasks(scheduler.TaskDeps{
		Logger:  log,
		Store:   store,
		Results: results,
	}))
	if err != nil {
		_ = results.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	handler := api.NewHandler(store, weather.NewClient(cfg.Weather, log), advisor, results, log)
	router := api.NewRouter(handler, api.MiddlewareConfigFrom(cfg.Server), log)

	log.InfoContext(ctx, "Application initialized",
		"storage", store.Kind(),
		"ai_available", advisor.Available(),
		"duration_ms", time.Since(start).Milliseconds())

	return &App{
		cfg:       cfg,
		logger:    log,
		store:     store,
		results:   results,
		scheduler: sched,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}, nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP and runs the scheduler until ctx is cancelled or a
// component fails, then shuts both down.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down HTTP server", "error", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
		a.logger.Info("HTTP server stopped")
		return nil
	})

	g.Go(func() error {
		if err := a.scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Application stopped due to error", "error", err)
		return err
	}
	a.logger.Info("Application stopped gracefully")
	return nil
}

// Close releases the result cache and the storage backend.
func (a *App) Close() error {
	var errs []error
	if err := a.results.Close(); err != nil {
		errs = append(errs, fmt.Errorf("result cache close: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close: %w", err))
	}
	return errors.Join(errs...)
}
