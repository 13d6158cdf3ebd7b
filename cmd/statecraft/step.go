package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/statecraft/internal/api"
	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/persistence"
)

func newStepCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		months int
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Simulate a number of months headlessly and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months <= 0 {
				return fmt.Errorf("--months must be positive, got %d", months)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			eng, err := newSession(cfg)
			if err != nil {
				return err
			}
			start := eng.Indicators()
			for i := 0; i < months; i++ {
				if err := eng.SimulateMonth(); err != nil {
					return fmt.Errorf("month %d: %w", eng.Month()+1, err)
				}
			}
			printSummary(cmd.OutOrStdout(), eng, start)

			if !save {
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("creating data dir: %w", err)
			}
			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			month, id, err := api.SaveSession(eng, db, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %d at month %d to %s\n", id, month, cfg.DBPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&months, "months", 12, "months to simulate")
	cmd.Flags().BoolVar(&save, "save", false, "store the final session in the database")
	return cmd
}

func printSummary(w io.Writer, eng *engine.Engine, start engine.Indicators) {
	ind := eng.Indicators()
	month := eng.Month()

	fmt.Fprintf(w, "%s after %d months (%s)\n", eng.Player(), month, engine.SimDate(month))
	fmt.Fprintf(w, "  GDP              £%sbn (was £%sbn)\n", humanize.Commaf(gamemath.Round(ind.GDP, 1)), humanize.Commaf(gamemath.Round(start.GDP, 1)))
	fmt.Fprintf(w, "  Growth (m/m)     %.2f%%\n", ind.GDPGrowth*100)
	fmt.Fprintf(w, "  Inflation        %.2f%%\n", ind.Inflation*100)
	fmt.Fprintf(w, "  Unemployment     %.2f%%\n", ind.Unemployment*100)
	fmt.Fprintf(w, "  Debt to GDP      %.1f%%\n", ind.DebtToGDP)
	fmt.Fprintf(w, "  Deficit (month)  £%sbn\n", humanize.Commaf(gamemath.Round(ind.BudgetDeficit, 1)))
	fmt.Fprintf(w, "  Trade balance    £%sbn\n", humanize.Commaf(gamemath.Round(ind.TradeBalance, 1)))
	fmt.Fprintf(w, "  Currency         %.3f\n", ind.CurrencyValue)
	fmt.Fprintf(w, "  Confidence       consumer %.0f, business %.0f\n", ind.ConsumerConfidence, ind.BusinessConfidence)

	shares := eng.PowerShares()
	names := make([]string, 0, len(shares))
	for n := range shares {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if shares[names[i]] != shares[names[j]] {
			return shares[names[i]] > shares[names[j]]
		}
		return names[i] < names[j]
	})
	fmt.Fprintln(w, "Power shares")
	for _, n := range names {
		fmt.Fprintf(w, "  %-16s %5.1f%%\n", n, shares[n]*100)
	}
	fmt.Fprintf(w, "AI subsystem failures: %d\n", eng.AIFailures())
}
