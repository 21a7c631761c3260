package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"twitter-insights/internal/model"
	"twitter-insights/internal/redisclient"
	"twitter-insights/internal/storage"

	"github.com/spf13/cobra"
)

// seedCmd loads a JSON post dump into an account timeline. Intended for
// local development; production ingestion runs outside this service.
var seedCmd = &cobra.Command{
	Use:   "seed <handle> <posts.json>",
	Short: "Load a JSON post array into an account timeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		handle, path := args[0], args[1]

		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		var posts []model.Post
		if err := json.Unmarshal(b, &posts); err != nil {
			return fmt.Errorf("decode input file: %w", err)
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewPostStore(rdb)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		for _, p := range posts {
			if p.ID == "" {
				return fmt.Errorf("post without id in %s", path)
			}
			if err := store.AddPost(ctx, handle, p); err != nil {
				return fmt.Errorf("store post %s: %w", p.ID, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d posts for %s\n", len(posts), handle)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
