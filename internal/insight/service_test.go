package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"twitter-insights/internal/database"
	"twitter-insights/internal/model"
)

type fakeLoader struct {
	total int
	posts []model.Post
	err   error

	gotHandles []string
	gotWindow  Window
}

func (f *fakeLoader) LoadWindow(ctx context.Context, handles []string, w Window, filter model.PostType, skip, limit int) (int, []model.Post, error) {
	f.gotHandles = handles
	f.gotWindow = w
	return f.total, f.posts, f.err
}

type fakeSnapshots struct {
	created []model.Snapshot
	byID    map[uuid.UUID]model.Snapshot
}

func (f *fakeSnapshots) Create(ctx context.Context, snap model.Snapshot) (model.Snapshot, error) {
	snap.ID = uuid.New()
	snap.CreatedAt = time.Now().UTC()
	f.created = append(f.created, snap)
	return snap, nil
}

func (f *fakeSnapshots) Get(ctx context.Context, id uuid.UUID) (model.Snapshot, error) {
	snap, ok := f.byID[id]
	if !ok {
		return model.Snapshot{}, database.ErrNotFound
	}
	return snap, nil
}

func (f *fakeSnapshots) List(ctx context.Context, filter model.SnapshotFilter, limit int) ([]model.Snapshot, error) {
	return nil, nil
}

func (f *fakeSnapshots) Latest(ctx context.Context, lineID *uuid.UUID, publicOnly bool) (*model.Snapshot, error) {
	return nil, nil
}

func (f *fakeSnapshots) SetVisibility(ctx context.Context, id uuid.UUID, isPublic bool) (model.Snapshot, error) {
	snap, err := f.Get(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.IsPublic = isPublic
	f.byID[id] = snap
	return snap, nil
}

func (f *fakeSnapshots) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRegistry struct {
	lines map[uuid.UUID]model.BusinessLine
}

func (f *fakeRegistry) GetLine(ctx context.Context, id uuid.UUID) (model.BusinessLine, error) {
	line, ok := f.lines[id]
	if !ok {
		return model.BusinessLine{}, database.ErrNotFound
	}
	return line, nil
}

func testService(line model.BusinessLine, loader *fakeLoader) (*Service, *fakeSnapshots) {
	snaps := &fakeSnapshots{byID: map[uuid.UUID]model.Snapshot{}}
	return &Service{
		Posts:      loader,
		Snapshots:  snaps,
		Registry:   &fakeRegistry{lines: map[uuid.UUID]model.BusinessLine{line.ID: line}},
		Topics:     &TopicAnalyzer{TopN: 5},
		KeyPersons: &KeyPersonAnalyzer{},
		Graph:      GraphBuilder{},

		MaxWindow:    7 * 24 * time.Hour,
		DefaultHours: 24,
	}, snaps
}

func testLine() model.BusinessLine {
	return model.BusinessLine{
		ID:   uuid.New(),
		Name: "Tech Watch",
		Members: []model.Member{
			{Handle: "alice", Description: "kernel maintainer"},
			{Handle: "bob"},
		},
	}
}

func TestGenerateUnknownLine(t *testing.T) {
	svc, _ := testService(testLine(), &fakeLoader{})
	_, err := svc.Generate(context.Background(), uuid.New(), 24)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateEmptyLine(t *testing.T) {
	line := model.BusinessLine{ID: uuid.New(), Name: "empty"}
	svc, _ := testService(line, &fakeLoader{})
	_, err := svc.Generate(context.Background(), line.ID, 24)
	if !errors.Is(err, ErrEmptyAccountSet) {
		t.Fatalf("err = %v, want ErrEmptyAccountSet", err)
	}
}

func TestGenerateEmptyWindow(t *testing.T) {
	line := testLine()
	svc, _ := testService(line, &fakeLoader{})

	got, err := svc.Generate(context.Background(), line.ID, 24)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Topics == nil || got.Nodes == nil || got.Edges == nil {
		t.Errorf("empty window must yield empty, non-nil collections: %+v", got)
	}
	if len(got.Topics) != 0 || len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestGenerateFallbackPipeline(t *testing.T) {
	line := testLine()
	loader := &fakeLoader{total: 3, posts: []model.Post{
		post("p1", "alice", "kernel scheduler patches landed", 9),
		post("p2", "bob", "reviewing kernel scheduler patches", 4),
		post("p3", "alice", "lunch break", 0),
	}}
	svc, _ := testService(line, loader)

	got, err := svc.Generate(context.Background(), line.ID, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got.Topics) == 0 {
		t.Fatal("expected fallback topics")
	}
	if len(loader.gotHandles) != 2 || loader.gotHandles[0] != "alice" {
		t.Errorf("loader handles = %v", loader.gotHandles)
	}
	if span := loader.gotWindow.End.Sub(loader.gotWindow.Start); span != 24*time.Hour {
		t.Errorf("default window span = %v, want 24h", span)
	}

	hasUser := false
	for _, n := range got.Nodes {
		if n.Type == model.NodeTypeUser {
			hasUser = true
		}
		if n.Type == model.NodeTypeTopic && !strings.HasPrefix(n.ID, model.NodePrefixTopic) {
			t.Errorf("topic node with bad id %q", n.ID)
		}
	}
	if !hasUser {
		t.Errorf("expected user nodes from the interaction heuristic, got %+v", got.Nodes)
	}
}

func TestTriggerSnapshotPersists(t *testing.T) {
	line := testLine()
	loader := &fakeLoader{total: 2, posts: []model.Post{
		post("p1", "alice", "incident retro published", 5),
		post("p2", "bob", "incident retro reading", 1),
	}}
	svc, snaps := testService(line, loader)

	got, err := svc.TriggerSnapshot(context.Background(), line.ID, 48)
	if err != nil {
		t.Fatalf("TriggerSnapshot: %v", err)
	}
	if len(snaps.created) != 1 {
		t.Fatalf("created %d snapshots, want 1", len(snaps.created))
	}
	if got.BusinessLineID != line.ID || got.BusinessLineName != line.Name {
		t.Errorf("snapshot line identity: %+v", got)
	}
	if !strings.Contains(got.RawDataSummary, "48 hours") || !strings.Contains(got.RawDataSummary, "2 posts") {
		t.Errorf("raw data summary = %q", got.RawDataSummary)
	}
	if time.Since(got.AnalysisDate) > time.Minute {
		t.Errorf("analysis date should be the window end, got %v", got.AnalysisDate)
	}
	if got.ID == uuid.Nil {
		t.Error("snapshot id not assigned")
	}
}

func TestHistoricalReport(t *testing.T) {
	line := testLine()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("invalid window", func(t *testing.T) {
		svc, _ := testService(line, &fakeLoader{})
		_, err := svc.HistoricalReport(context.Background(), line.ID, []string{"alice"},
			Window{Start: base, End: base})
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("err = %v, want ErrInvalidWindow", err)
		}
	})

	t.Run("span over limit", func(t *testing.T) {
		svc, _ := testService(line, &fakeLoader{})
		_, err := svc.HistoricalReport(context.Background(), line.ID, []string{"alice"},
			Window{Start: base, End: base.Add(8 * 24 * time.Hour)})
		if !errors.Is(err, ErrWindowTooLong) {
			t.Fatalf("err = %v, want ErrWindowTooLong", err)
		}
	})

	t.Run("no member overlap", func(t *testing.T) {
		svc, _ := testService(line, &fakeLoader{})
		_, err := svc.HistoricalReport(context.Background(), line.ID, []string{"stranger"},
			Window{Start: base, End: base.Add(24 * time.Hour)})
		if !errors.Is(err, ErrEmptyAccountSet) {
			t.Fatalf("err = %v, want ErrEmptyAccountSet", err)
		}
	})

	t.Run("subset analysis", func(t *testing.T) {
		loader := &fakeLoader{total: 1, posts: []model.Post{post("p1", "alice", "quarterly numbers out", 2)}}
		svc, _ := testService(line, loader)
		w := Window{Start: base, End: base.Add(24 * time.Hour)}

		got, err := svc.HistoricalReport(context.Background(), line.ID, []string{"alice", "stranger"}, w)
		if err != nil {
			t.Fatalf("HistoricalReport: %v", err)
		}
		if len(loader.gotHandles) != 1 || loader.gotHandles[0] != "alice" {
			t.Errorf("loader handles = %v, want only the member subset", loader.gotHandles)
		}
		if !got.AnalysisDate.Equal(w.End) {
			t.Errorf("analysis date = %v, want window end %v", got.AnalysisDate, w.End)
		}
		if !strings.Contains(got.RawDataSummary, "Historical analysis") {
			t.Errorf("raw data summary = %q", got.RawDataSummary)
		}
	})
}

func TestRelatedPosts(t *testing.T) {
	line := testLine()
	snapDate := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	inWindow := snapDate.Add(-2 * time.Hour)

	p1 := post("p1", "alice", "database migration post", 3)
	p1.CreatedAt = inWindow
	p2 := post("p2", "bob", "weekend hike", 1)
	p2.CreatedAt = inWindow.Add(time.Minute)
	p3 := post("p3", "bob", "cited evidence post", 0)
	p3.CreatedAt = inWindow.Add(2 * time.Minute)

	loader := &fakeLoader{total: 3, posts: []model.Post{p1, p2, p3}}
	svc, snaps := testService(line, loader)

	snapID := uuid.New()
	snaps.byID[snapID] = model.Snapshot{
		ID:             snapID,
		BusinessLineID: line.ID,
		AnalysisDate:   snapDate,
		Topics: []model.TopicSummary{
			{Topic: "database migration", RelatedPosts: []string{"p3"}},
		},
	}

	t.Run("user node", func(t *testing.T) {
		got, err := svc.RelatedPosts(context.Background(), snapID, "user:bob", 10)
		if err != nil {
			t.Fatalf("RelatedPosts: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d posts, want 2: %+v", len(got), got)
		}
		if !got[0].CreatedAt.After(got[1].CreatedAt) {
			t.Errorf("posts must be newest first: %+v", got)
		}
	})

	t.Run("topic node uses evidence and label match", func(t *testing.T) {
		got, err := svc.RelatedPosts(context.Background(), snapID, "topic:database migration", 10)
		if err != nil {
			t.Fatalf("RelatedPosts: %v", err)
		}
		ids := map[string]bool{}
		for _, p := range got {
			ids[p.ID] = true
		}
		if !ids["p1"] || !ids["p3"] || ids["p2"] {
			t.Errorf("related ids = %v, want p1 (label match) and p3 (cited)", ids)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := svc.RelatedPosts(context.Background(), snapID, "user:bob", 1)
		if err != nil {
			t.Fatalf("RelatedPosts: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("limit not applied, got %d posts", len(got))
		}
	})

	t.Run("bad node id", func(t *testing.T) {
		_, err := svc.RelatedPosts(context.Background(), snapID, "banana:split", 10)
		if !errors.Is(err, ErrInvalidNode) {
			t.Fatalf("err = %v, want ErrInvalidNode", err)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := svc.RelatedPosts(context.Background(), uuid.New(), "user:bob", 10)
		if !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
