package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/statecraft/internal/api"
	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/metrics"
	"github.com/talgya/statecraft/internal/persistence"
)

// snapshotKeep bounds the snapshots kept by autosave.
const snapshotKeep = 24

func newRunCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation in real time with the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
}

func run(cmd *cobra.Command, cfg config.Config) error {
	slog.Info("statecraft starting", "player", cfg.Player, "seed", cfg.Seed, "interval", cfg.MonthInterval)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Session (resume from the latest snapshot when there is one) ──
	eng, err := newSession(cfg)
	if err != nil {
		return err
	}
	row, err := db.LatestSnapshot()
	switch {
	case errors.Is(err, persistence.ErrNoSnapshot):
		slog.Info("no saved session found, starting fresh")
	case err != nil:
		return fmt.Errorf("reading latest snapshot: %w", err)
	default:
		if err := eng.Restore(row.Data); err != nil {
			slog.Warn("saved session rejected, starting fresh", "snapshot", row.ID, "error", err)
		} else {
			slog.Info("session restored", "snapshot", row.ID, "month", eng.Month(), "date", engine.SimDate(eng.Month()))
		}
	}

	// ── Metrics ───────────────────────────────────────────────────────
	var stepper engine.Stepper = eng
	var reg *metrics.Metrics
	if cfg.MetricsEnabled {
		if reg, err = metrics.New(); err != nil {
			return err
		}
		reg.Attach(eng.Bus())
		eng.SetFailureHook(reg.AIFailure)
		reg.Observe(eng)
		stepper = reg.Instrument(eng)
	}

	// ── Clock with autosave ──────────────────────────────────────────
	clock := engine.NewClock(stepper, cfg.MonthInterval)
	clock.OnMonth = func(month int) {
		if cfg.AutosaveEvery <= 0 || month%cfg.AutosaveEvery != 0 {
			return
		}
		if _, _, err := api.SaveSession(eng, db, snapshotKeep); err != nil {
			slog.Error("autosave failed", "month", month, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("STATECRAFT_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Eng:          eng,
		Clock:        clock,
		DB:           db,
		Port:         cfg.APIPort,
		AdminKey:     cfg.AdminKey,
		SnapshotKeep: snapshotKeep,
	}
	if reg != nil {
		apiServer.Metrics = reg.Handler()
	}
	srv := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		clock.Stop()
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nGoverning %s from %s.\n", eng.Player(), engine.SimDate(eng.Month()))
	fmt.Fprintf(out, "API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Fprintln(out, "Starting simulation... (Ctrl+C to stop)")

	clock.Run()
	api.Shutdown(srv)

	// Final save on shutdown.
	slog.Info("final save...")
	if _, _, err := api.SaveSession(eng, db, snapshotKeep); err != nil {
		return fmt.Errorf("final save failed: %w", err)
	}

	fmt.Fprintln(out, "Simulation stopped. Session saved.")
	return nil
}
