package cmd

import (
	"context"
	"fmt"
	"time"

	"twitter-insights/internal/database"
	"twitter-insights/internal/redisclient"

	"github.com/spf13/cobra"
)

// pingCmd checks connectivity to redis and postgres.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping redis and postgres and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "redis: %s\n", res)

		pool, err := database.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "postgres: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
