// Command gridtui serves the registered grids in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gridview/internal/application"
	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/schema"
	"github.com/JonMunkholm/gridview/internal/store"
)

func main() {
	logFile := flag.String("log", "gridtui.log", "File to write logs to")
	flag.Parse()

	if err := run(*logFile); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(logPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logging.SetupWriter(f, cfg.Logging.Level, cfg.Logging.Format)

	defs, err := schema.Load(cfg.Grid.SpecFile)
	if err != nil {
		return err
	}
	schema.RegisterAll(defs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("gridtui started", "grids", core.GridCount(), "config", cfg)

	service := core.NewService(pool, core.Options{
		DeleteConcurrency: cfg.Grid.DeleteConcurrency,
		RowLimit:          cfg.Grid.RowLimit,
		OptionsTimeout:    cfg.Grid.OptionsTimeout,
		Limiter:           core.NewBatchLimiter(cfg.Grid.MaxConcurrentBatches, cfg.Grid.BatchWaitTime),
	})

	_, err = tea.NewProgram(application.New(ctx, service), tea.WithAltScreen()).Run()
	return err
}
