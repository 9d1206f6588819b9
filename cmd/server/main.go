// Command server serves the registered grids over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/schema"
	"github.com/JonMunkholm/gridview/internal/store"
	"github.com/JonMunkholm/gridview/internal/web"
)

func main() {
	// .env values win over the inherited environment
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	defs, err := schema.Load(cfg.Grid.SpecFile)
	if err != nil {
		return err
	}
	schema.RegisterAll(defs)
	slog.Info("grids registered", "count", core.GridCount(), "groups", len(core.Groups()))
	for _, group := range core.Groups() {
		slog.Debug("grid group", "group", group, "grids", len(core.ByGroup(group)))
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database", "name", pool.Config().ConnConfig.Database)

	service := core.NewService(pool, core.Options{
		DeleteConcurrency: cfg.Grid.DeleteConcurrency,
		RowLimit:          cfg.Grid.RowLimit,
		OptionsTimeout:    cfg.Grid.OptionsTimeout,
		Limiter:           core.NewBatchLimiter(cfg.Grid.MaxConcurrentBatches, cfg.Grid.BatchWaitTime),
	})
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Running batch deletes get the shutdown window to finish
		if active := service.Limiter().Status().Active; active > 0 {
			slog.Info("waiting for batch deletes", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("batch deletes did not finish in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
