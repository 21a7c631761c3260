package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"twitter-insights/internal/model"
)

// PostLoader retrieves the unified post window for a set of accounts.
// Accounts with no store behind them yield no posts, not an error.
type PostLoader interface {
	LoadWindow(ctx context.Context, handles []string, w Window, filter model.PostType, skip, limit int) (int, []model.Post, error)
}

// SnapshotStore persists and serves analysis snapshots.
type SnapshotStore interface {
	Create(ctx context.Context, snap model.Snapshot) (model.Snapshot, error)
	Get(ctx context.Context, id uuid.UUID) (model.Snapshot, error)
	List(ctx context.Context, f model.SnapshotFilter, limit int) ([]model.Snapshot, error)
	Latest(ctx context.Context, lineID *uuid.UUID, publicOnly bool) (*model.Snapshot, error)
	SetVisibility(ctx context.Context, id uuid.UUID, isPublic bool) (model.Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Registry resolves business lines and their tracked members.
type Registry interface {
	GetLine(ctx context.Context, id uuid.UUID) (model.BusinessLine, error)
}

// Service runs the full pipeline: post window → concurrent analyzers →
// graph merge → optional snapshot persistence.
type Service struct {
	Posts      PostLoader
	Snapshots  SnapshotStore
	Registry   Registry
	Topics     *TopicAnalyzer
	KeyPersons *KeyPersonAnalyzer
	Graph      GraphBuilder

	MaxWindow    time.Duration // report-path span limit
	MaxPosts     int           // posts fed to analyzers per run
	DefaultHours int
}

func (s *Service) maxPosts() int {
	if s.MaxPosts > 0 {
		return s.MaxPosts
	}
	return 500
}

// Generate produces live insights for a line over the trailing window.
// Nothing is persisted.
func (s *Service) Generate(ctx context.Context, lineID uuid.UUID, hours int) (model.Insights, error) {
	line, err := s.Registry.GetLine(ctx, lineID)
	if err != nil {
		return model.Insights{}, err
	}
	if len(line.Members) == 0 {
		return model.Insights{}, ErrEmptyAccountSet
	}
	if hours <= 0 {
		hours = s.DefaultHours
	}
	_, posts, err := s.Posts.LoadWindow(ctx, line.Handles(), LastHours(hours), "", 0, s.maxPosts())
	if err != nil {
		return model.Insights{}, fmt.Errorf("load post window: %w", err)
	}
	return s.analyze(ctx, posts, line.Descriptions(), line.Handles()), nil
}

// TriggerSnapshot runs analysis over the trailing window and persists the
// result. A fallback on either analyzer still yields a snapshot; only loader
// or store failures fail the trigger.
func (s *Service) TriggerSnapshot(ctx context.Context, lineID uuid.UUID, hours int) (model.Snapshot, error) {
	line, err := s.Registry.GetLine(ctx, lineID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(line.Members) == 0 {
		return model.Snapshot{}, ErrEmptyAccountSet
	}
	if hours <= 0 {
		hours = s.DefaultHours
	}
	w := LastHours(hours)
	total, posts, err := s.Posts.LoadWindow(ctx, line.Handles(), w, "", 0, s.maxPosts())
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load post window: %w", err)
	}
	res := s.analyze(ctx, posts, line.Descriptions(), line.Handles())
	return s.Snapshots.Create(ctx, model.Snapshot{
		BusinessLineID:   line.ID,
		BusinessLineName: line.Name,
		AnalysisDate:     w.End,
		Topics:           res.Topics,
		Nodes:            res.Nodes,
		Edges:            res.Edges,
		RawDataSummary:   fmt.Sprintf("Analysis for %s covering last %d hours (%d posts)", line.Name, hours, total),
	})
}

// HistoricalReport analyzes an explicit window for a member subset and
// persists the result as a snapshot dated at the window end. The window span
// is capped here; this is the validation boundary, not a loader limit.
func (s *Service) HistoricalReport(ctx context.Context, lineID uuid.UUID, handles []string, w Window) (model.Snapshot, error) {
	line, err := s.Registry.GetLine(ctx, lineID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(handles) == 0 {
		return model.Snapshot{}, ErrEmptyAccountSet
	}
	if err := w.Validate(s.MaxWindow); err != nil {
		return model.Snapshot{}, err
	}
	w = w.Resolved()
	member := map[string]struct{}{}
	for _, m := range line.Members {
		member[m.Handle] = struct{}{}
	}
	selected := make([]string, 0, len(handles))
	for _, h := range handles {
		if _, ok := member[h]; ok {
			selected = append(selected, h)
		}
	}
	if len(selected) == 0 {
		return model.Snapshot{}, fmt.Errorf("%w: no selected handles are members of %s", ErrEmptyAccountSet, line.Name)
	}
	total, posts, err := s.Posts.LoadWindow(ctx, selected, w, "", 0, s.maxPosts())
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load post window: %w", err)
	}
	descs := line.Descriptions()
	for h := range descs {
		if _, ok := member[h]; !ok {
			delete(descs, h)
		}
	}
	res := s.analyze(ctx, posts, descs, selected)
	return s.Snapshots.Create(ctx, model.Snapshot{
		BusinessLineID:   line.ID,
		BusinessLineName: line.Name,
		AnalysisDate:     w.End,
		Topics:           res.Topics,
		Nodes:            res.Nodes,
		Edges:            res.Edges,
		RawDataSummary: fmt.Sprintf("Historical analysis for %s from %s to %s (%d posts, %d accounts)",
			line.Name, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), total, len(selected)),
	})
}

// analyze runs both analyzers concurrently and merges their results. Each
// analyzer owns its timeout and fallback, so this step cannot fail.
func (s *Service) analyze(ctx context.Context, posts []model.Post, descriptions map[string]string, tracked []string) model.Insights {
	if len(posts) == 0 {
		return model.Insights{Topics: []model.TopicSummary{}, Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
	}
	var (
		topics  []model.TopicSummary
		persons PersonsResult
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		topics = s.Topics.Analyze(ctx, posts, descriptions)
	}()
	go func() {
		defer wg.Done()
		persons = s.KeyPersons.Analyze(ctx, posts, descriptions, tracked)
	}()
	wg.Wait()

	nodes, edges := s.Graph.Build(topics, persons, posts)
	slog.Info("analysis complete", "posts", len(posts), "topics", len(topics), "nodes", len(nodes), "edges", len(edges))
	return model.Insights{Topics: topics, Nodes: nodes, Edges: edges}
}

// RelatedPosts resolves a stored snapshot node back to the posts that
// justify it: the account's own posts for user nodes, posts cited as
// evidence (or matching the label) for topic nodes.
func (s *Service) RelatedPosts(ctx context.Context, snapshotID uuid.UUID, nodeID string, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	snap, err := s.Snapshots.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	line, err := s.Registry.GetLine(ctx, snap.BusinessLineID)
	if err != nil {
		return nil, err
	}
	w := Window{Start: snap.AnalysisDate.Add(-24 * time.Hour), End: snap.AnalysisDate}
	_, posts, err := s.Posts.LoadWindow(ctx, line.Handles(), w, "", 0, s.maxPosts())
	if err != nil {
		return nil, fmt.Errorf("load post window: %w", err)
	}

	var related []model.Post
	switch {
	case strings.HasPrefix(nodeID, model.NodePrefixUser):
		handle := strings.TrimPrefix(nodeID, model.NodePrefixUser)
		for _, p := range posts {
			if p.Username == handle || p.Author == handle {
				related = append(related, p)
			}
		}
	case strings.HasPrefix(nodeID, model.NodePrefixTopic):
		label := strings.TrimPrefix(nodeID, model.NodePrefixTopic)
		evidence := map[string]struct{}{}
		for _, t := range snap.Topics {
			if t.Topic == label {
				for _, id := range t.RelatedPosts {
					evidence[id] = struct{}{}
				}
			}
		}
		lower := strings.ToLower(label)
		for _, p := range posts {
			if _, cited := evidence[p.ID]; cited || strings.Contains(strings.ToLower(p.Content), lower) {
				related = append(related, p)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidNode, nodeID)
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].CreatedAt.After(related[j].CreatedAt)
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}
