package report

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"twitter-insights/internal/model"
)

func TestRenderSnapshot(t *testing.T) {
	snap := model.Snapshot{
		ID:               uuid.New(),
		BusinessLineName: "Tech Watch",
		AnalysisDate:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		RawDataSummary:   "Analysis for Tech Watch covering last 24 hours (42 posts)",
		Topics: []model.TopicSummary{
			{Topic: "ai regulation", Summary: "Debate around the new draft bill.", Score: 8.25, Sentiment: "negative"},
			{Topic: "open source", Summary: "Funding discussion.", Score: 3},
		},
		Nodes: []model.GraphNode{
			{ID: "user:alice", Label: "alice", Type: model.NodeTypeUser, Weight: 4},
			{ID: "topic:ai regulation", Label: "ai regulation", Type: model.NodeTypeTopic, Weight: 8.25},
		},
		Edges: []model.GraphEdge{
			{Source: "user:alice", Target: "topic:ai regulation", Weight: 0.9},
		},
	}

	out, err := Render(FromSnapshot(snap))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"# Tech Watch",
		"2026-03-01 08:00 UTC",
		"### ai regulation [8.2] (negative)",
		"### open source [3.0]",
		"**alice** (4.0)",
		"user:alice → topic:ai regulation (0.9)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**ai regulation**") {
		t.Errorf("topic nodes must not appear in the key people section:\n%s", out)
	}
}

func TestRenderEmptySnapshot(t *testing.T) {
	out, err := Render(FromSnapshot(model.Snapshot{BusinessLineName: "Empty"}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "# Empty") {
		t.Errorf("missing title:\n%s", out)
	}
}
