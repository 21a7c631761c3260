package cmd

import (
	"fmt"

	"twitter-insights/internal/database"

	"github.com/spf13/cobra"
)

// migrateCmd applies the embedded schema migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply postgres schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := database.Migrate(cfg.Postgres.DSN); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
