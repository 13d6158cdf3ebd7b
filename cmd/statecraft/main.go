// Command statecraft runs the national economy and geopolitics simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/data"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "statecraft",
		Short:         "Run a national economy against AI-driven rival states",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (STATECRAFT_* env vars override it)")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		setupLogging(cfg)
		return cfg, nil
	}

	root.AddCommand(newRunCmd(loadConfig))
	root.AddCommand(newStepCmd(loadConfig))
	root.AddCommand(newExportCmd(loadConfig))
	return root
}

func setupLogging(cfg config.Config) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}

// newSession loads the scenario and builds an initialised engine.
func newSession(cfg config.Config) (*engine.Engine, error) {
	ds := data.Default()
	if cfg.DataPath != "" {
		var err error
		if ds, err = data.Load(cfg.DataPath); err != nil {
			return nil, fmt.Errorf("loading scenario: %w", err)
		}
		slog.Info("scenario loaded", "path", cfg.DataPath, "countries", len(ds.Countries))
	}

	var src entropy.Source = entropy.Crypto()
	if cfg.Seed != 0 {
		src = entropy.NewSeeded(cfg.Seed)
	}

	eng := engine.New(events.NewDispatcher(), src, engine.Options{
		HistoryCap: cfg.HistoryCap,
		Player:     cfg.Player,
	})
	if err := eng.Initialize(ds); err != nil {
		return nil, err
	}
	return eng, nil
}
