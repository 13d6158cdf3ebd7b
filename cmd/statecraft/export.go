package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/statecraft/internal/config"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
)

func newExportCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the latest stored snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if list {
				rows, err := db.Snapshots(100)
				if err != nil {
					return err
				}
				for _, r := range rows {
					fmt.Fprintf(out, "%4d  month %-4d %-12s  %s\n", r.ID, r.Month, engine.SimDate(r.Month), humanize.Time(r.CreatedAt))
				}
				return nil
			}

			row, err := db.LatestSnapshot()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, row.Data, "", "  "); err != nil {
				return fmt.Errorf("snapshot %d is not valid JSON: %w", row.ID, err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list stored snapshots instead")
	return cmd
}
