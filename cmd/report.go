package cmd

import (
	"fmt"
	"os"

	"twitter-insights/internal/database"
	"twitter-insights/internal/report"
	"twitter-insights/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var reportOutputFile string

// reportCmd renders a stored snapshot as a markdown report.
var reportCmd = &cobra.Command{
	Use:   "report <snapshot-id>",
	Short: "Render a snapshot as a markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q: %w", args[0], err)
		}

		pool, err := database.NewPool(cmd.Context(), cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		snap, err := storage.NewSnapshotStore(pool).Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		md, err := report.Render(report.FromSnapshot(snap))
		if err != nil {
			return err
		}
		if reportOutputFile != "" {
			return os.WriteFile(reportOutputFile, []byte(md), 0o644)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutputFile, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}
