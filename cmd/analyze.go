package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"twitter-insights/internal/database"
	"twitter-insights/internal/model"
	"twitter-insights/internal/redisclient"
	"twitter-insights/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	analyzeHours   int
	analyzeOut     string
	analyzeInput   string
	analyzeHandles []string
)

// analyzeCmd runs one analysis and prints the result, without persisting a
// snapshot. With --input it runs entirely offline from a JSON post dump.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [line-id]",
	Short: "Run a one-shot insight analysis and print the result",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		if strings.TrimSpace(analyzeInput) != "" {
			return analyzeFromFile(cmd, analyzeInput)
		}
		if len(args) != 1 {
			return fmt.Errorf("line-id argument required unless --input is given")
		}
		lineID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid line id %q: %w", args[0], err)
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		posts := storage.NewPostStore(rdb)

		pool, err := database.NewPool(cmd.Context(), cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		snapshots := storage.NewSnapshotStore(pool)
		registry := storage.NewRegistryStore(pool)

		svc, err := buildInsightService(cfg, posts, snapshots, registry)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		slog.Info("analyze: generating insights", "line", lineID, "hours", analyzeHours)
		res, err := svc.Generate(ctx, lineID, analyzeHours)
		if err != nil {
			return err
		}
		return renderInsights(cmd, res)
	},
}

// analyzeFromFile skips redis and postgres entirely: posts come from a JSON
// array on disk and the tracked set from --handles (defaulting to the authors
// present in the file).
func analyzeFromFile(cmd *cobra.Command, path string) error {
	cfg := GetConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	var posts []model.Post
	if err := json.Unmarshal(b, &posts); err != nil {
		return fmt.Errorf("decode input file: %w", err)
	}

	tracked := analyzeHandles
	if len(tracked) == 0 {
		seen := map[string]struct{}{}
		for _, p := range posts {
			h := strings.ToLower(p.Username)
			if h == "" {
				continue
			}
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				tracked = append(tracked, h)
			}
		}
	}
	descriptions := map[string]string{}
	for _, h := range tracked {
		descriptions[h] = ""
	}

	svc, err := buildInsightService(cfg, nil, nil, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	slog.Info("analyze: offline run", "posts", len(posts), "tracked", len(tracked))
	topics := svc.Topics.Analyze(ctx, posts, descriptions)
	persons := svc.KeyPersons.Analyze(ctx, posts, descriptions, tracked)
	nodes, edges := svc.Graph.Build(topics, persons, posts)
	return renderInsights(cmd, model.Insights{Topics: topics, Nodes: nodes, Edges: edges})
}

func renderInsights(cmd *cobra.Command, res model.Insights) error {
	switch strings.ToLower(analyzeOut) {
	case "yaml":
		b, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", analyzeOut)
	}
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeHours, "hours", 0, "analysis window in hours (default: config analysis.default_hours)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "yaml", "output format: yaml or json")
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "JSON file with a post array; runs offline when set")
	analyzeCmd.Flags().StringSliceVar(&analyzeHandles, "handles", nil, "tracked handles for --input mode (default: authors in the file)")
	rootCmd.AddCommand(analyzeCmd)
}
