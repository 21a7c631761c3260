package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twitter-insights/internal/config"
	"twitter-insights/internal/database"
	"twitter-insights/internal/httpapi"
	"twitter-insights/internal/insight"
	"twitter-insights/internal/llm"
	"twitter-insights/internal/redisclient"
	"twitter-insights/internal/storage"
	"twitter-insights/worker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and scheduled snapshot workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

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

		// Scheduled snapshot builders, one per configured line
		var ws []worker.Worker
		for _, sched := range cfg.Schedules {
			lineID, err := uuid.Parse(sched.LineID)
			if err != nil {
				return fmt.Errorf("invalid schedule line_id %q: %w", sched.LineID, err)
			}
			interval, err := time.ParseDuration(sched.Interval)
			if err != nil {
				return fmt.Errorf("invalid schedule interval for line %s: %w", sched.LineID, err)
			}
			ws = append(ws, &worker.SnapshotBuilder{
				Insights:  svc,
				Markers:   posts,
				LineID:    lineID,
				Frequency: sched.Frequency,
				Hours:     sched.Hours,
				Interval:  interval,
			})
		}

		srv := httpapi.NewServer(cfg.HTTP.Addr, svc, registry, posts)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("http shutdown", "err", err)
			}
			cancel()
		}()

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()

		if len(ws) > 0 {
			slog.Info("starting snapshot builders", "count", len(ws))
			mgr := worker.NewManager(ws...)
			go func() {
				if err := mgr.Start(ctx); err != nil {
					slog.Error("worker manager", "err", err)
				}
			}()
		}

		err = <-errc
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

// buildInsightService wires the analyzers and graph builder. The provider is
// selected once here; an empty API key leaves both analyzers on their
// deterministic fallbacks.
func buildInsightService(cfg config.Config, posts *storage.PostStore, snapshots *storage.SnapshotStore, registry *storage.RegistryStore) (*insight.Service, error) {
	var provider llm.Provider
	if cfg.LLM.APIKey != "" {
		p, err := llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		provider = p
	}
	timeout, err := time.ParseDuration(cfg.LLM.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid llm timeout: %w", err)
	}
	maxWindow, err := time.ParseDuration(cfg.Analysis.MaxWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid max_window: %w", err)
	}
	return &insight.Service{
		Posts:     posts,
		Snapshots: snapshots,
		Registry:  registry,
		Topics: &insight.TopicAnalyzer{
			Provider:     provider,
			Timeout:      timeout,
			ExcerptRunes: cfg.Analysis.ExcerptRunes,
			MaxPosts:     cfg.Analysis.MaxPosts,
			TopN:         cfg.Analysis.TopTopics,
		},
		KeyPersons: &insight.KeyPersonAnalyzer{
			Provider:     provider,
			Timeout:      timeout,
			ExcerptRunes: cfg.Analysis.ExcerptRunes,
			MaxPosts:     cfg.Analysis.MaxPosts,
		},
		Graph:        insight.GraphBuilder{EdgeWeightCap: cfg.Analysis.EdgeWeightCap},
		MaxWindow:    maxWindow,
		MaxPosts:     cfg.Analysis.MaxPosts,
		DefaultHours: cfg.Analysis.DefaultHours,
	}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
