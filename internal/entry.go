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

	"github.com/starford/campaignjournal/internal/api"
	"github.com/starford/campaignjournal/internal/auth"
	"github.com/starford/campaignjournal/internal/journal"
	"github.com/starford/campaignjournal/internal/mcpserver"
	"github.com/starford/campaignjournal/internal/render"
	"github.com/starford/campaignjournal/internal/sse"
	"github.com/starford/campaignjournal/internal/storage"
	"github.com/starford/campaignjournal/internal/store"
	"github.com/starford/campaignjournal/internal/vault"
	"github.com/starford/campaignjournal/internal/wikilink"
)

const sessionPurgeInterval = time.Hour

// components are the long-lived services shared by the HTTP and MCP entry points.
type components struct {
	db      *store.DB
	journal *journal.Service
	files   *storage.FS
	mirror  *vault.Mirror
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// build opens the database, prepares the vault mirror and syncs it into the store.
func build(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...journal.Option) (*components, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	c := &components{db: db}

	if cfg.Vault.Enabled() {
		c.files, err = storage.NewFS(cfg.Vault.Path)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init vault: %w", err)
		}
		c.mirror = vault.NewMirror(c.files)
		opts = append(opts, journal.WithExporter(c.mirror))
	}

	resolver := wikilink.NewResolver(wikilink.DefaultRegistry())
	renderer := render.New(resolver, cfg.Render.Options())
	c.journal = journal.NewService(db, resolver, renderer, opts...)

	if c.mirror != nil {
		if err := vault.Sync(ctx, c.journal, c.files, c.mirror, logger); err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		}
	}

	return c, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := build(ctx, cfg, logger, journal.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.db.Close()

	authn := auth.NewService(c.db, auth.WithSessionTTL(cfg.Auth.SessionTTL))
	apiRouter := api.NewRouter(c.journal, authn, cfg.Auth.AuthEnabled(), broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	mountHealth(r, c.db.Ping)
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if c.mirror != nil && cfg.Vault.Watch {
		g.Go(func() error {
			if err := vault.Watch(gCtx, c.journal, c.files, logger); err != nil {
				logger.Error("vault watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Lookups already ignore expired sessions; the sweep deletes them.
	if cfg.Auth.AuthEnabled() {
		g.Go(func() error {
			ticker := time.NewTicker(sessionPurgeInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					n, err := authn.PurgeExpired(gCtx)
					if err != nil {
						logger.Warn("session purge failed", slog.String("error", err.Error()))
						continue
					}
					if n > 0 {
						logger.Info("purged expired sessions", slog.Int64("count", n))
					}
				}
			}
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblocks the watcher and purge loop after a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// mountHealth registers the unauthenticated health endpoints. Readiness
// reports 503 while ready returns an error.
func mountHealth(r chi.Router, ready func() error) {
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := ready(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}

// RunMCP serves the journal over MCP on stdin/stdout until the client
// disconnects. Logs go to stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("Starting MCP server", slog.String("version", app.version))
	return mcpserver.New(c.journal, app.version).ServeStdio()
}
