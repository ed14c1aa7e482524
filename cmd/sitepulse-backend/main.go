package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sitepulse/api"
	"github.com/use-agent/sitepulse/cleaner"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/engine"
	"github.com/use-agent/sitepulse/logging"
	"github.com/use-agent/sitepulse/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logFile := logging.Init(cfg.Log, os.Stdout, "sitepulse-backend")
	defer logFile.Close()
	slog.Info("sitepulse backend starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchTimeout", cfg.Server.FetchTimeout,
		"relatedPages", cfg.Crawl.RelatedPages,
	)

	// ── 3. Fetch engines: Chrome TLS first, plain TLS as fallback ──
	memory := engine.NewHostMemory(24 * time.Hour)
	defer memory.Stop()
	dispatcher := engine.NewDispatcher(memory, engine.NewChromeEngine(), engine.NewPlainEngine())

	// ── 4. Scraper and router ───────────────────────────────────────
	sc := scraper.New(dispatcher, cleaner.New(), cfg.Server, cfg.Crawl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	router := api.NewRouter(ctx, sc, cfg)

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("sitepulse backend stopped")
}
