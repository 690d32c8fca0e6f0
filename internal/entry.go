// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/todod/internal/api"
	"github.com/starford/todod/internal/events"
	"github.com/starford/todod/internal/mcpserver"
	"github.com/starford/todod/internal/reload"
	"github.com/starford/todod/internal/repository"
	"github.com/starford/todod/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Structured JSON logger; the level can change on config reload.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_url", cfg.App.BaseURL),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.Open(ctx, cfg.Store.Options())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	var (
		broker     *events.Broker
		sseHandler http.Handler
		repoOpts   []repository.Option
	)
	if cfg.Events.Enabled {
		broker = events.NewBroker(cfg.Events.KeepAlive)
		defer broker.Close()
		sseHandler = broker
		repoOpts = append(repoOpts, repository.WithNotifier(broker.PublishTodoEvent))
	}
	repo := repository.New(store, cfg.App.BaseURL, repoOpts...)

	var metrics *api.Metrics
	if cfg.Metrics.Enabled {
		metrics = api.NewMetrics()
	}

	r := newRootRouter(store, repo, metrics, cfg.Metrics.Path, sseHandler)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the log level.
	if app.configPath != "" {
		if _, statErr := os.Stat(app.configPath); statErr == nil {
			g.Go(func() error {
				return reload.Watch(gCtx, app.configPath, NewDefaultConfig, logger, func(next *Config) {
					if next.App.LogLevel != level.Level() {
						logger.Info("log level changed",
							slog.String("from", level.Level().String()),
							slog.String("to", next.App.LogLevel.String()))
						level.Set(next.App.LogLevel)
					}
				})
			})
		}
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Closing the broker ends open event streams so Shutdown does not wait on them.
		if broker != nil {
			broker.Close()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newRootRouter mounts the todo API under / next to the health and metrics endpoints.
func newRootRouter(store storage.Provider, repo *repository.Repository, metrics *api.Metrics,
	metricsPath string, sseHandler http.Handler,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := store.Ping(req.Context()); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	if metrics != nil {
		r.Method(http.MethodGet, metricsPath, metrics.Handler())
	}

	r.Mount("/", api.NewRouter(repo, metrics, sseHandler))
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// RunMCP serves the repository as MCP tools over stdin/stdout.
// Logs go to stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.Open(ctx, cfg.Store.Options())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	repo := repository.New(store, cfg.App.BaseURL)
	srv := mcpserver.New(repo, app.version)

	logger.Info("MCP server starting", slog.String("store_driver", cfg.Store.Driver))
	if err := srv.ServeStdio(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
