package insight

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"twitter-insights/internal/model"
)

func interactionWindow() []model.Post {
	mk := func(id, user string) model.Post { return post(id, user, "text "+id, 0) }
	rt := func(id, user, target string) model.Post {
		p := post(id, user, "RT "+id, 0)
		p.IsRetweet = true
		p.OriginalAuthor = target
		return p
	}
	reply := func(id, user, target string) model.Post {
		p := post(id, user, "re "+id, 0)
		p.IsReply = true
		p.OriginalAuthor = target
		return p
	}
	return []model.Post{
		mk("a1", "alice"), mk("a2", "alice"),
		rt("a3", "alice", "carol"), rt("a4", "alice", "carol"),
		mk("b1", "bob"), mk("b2", "bob"),
		reply("b3", "bob", "dave"), // dave is not tracked
		mk("c1", "carol"), mk("c2", "carol"),
		rt("c3", "carol", "carol"), // self-interaction carries no edge
	}
}

func TestInteractionHeuristic(t *testing.T) {
	got := InteractionHeuristic(interactionWindow(), []string{"alice", "bob", "carol"})

	wantPersons := []Person{
		{Handle: "alice", Weight: 4},
		{Handle: "bob", Weight: 3},
		{Handle: "carol", Weight: 3},
	}
	if diff := cmp.Diff(wantPersons, got.Persons); diff != "" {
		t.Errorf("persons mismatch (-want +got):\n%s", diff)
	}

	wantRelations := []Relation{{Source: "alice", Target: "carol", Weight: 2}}
	if diff := cmp.Diff(wantRelations, got.Relations); diff != "" {
		t.Errorf("relations mismatch (-want +got):\n%s", diff)
	}
}

func TestInteractionHeuristicUntrackedAuthor(t *testing.T) {
	p := post("x1", "mallory", "hi", 0)
	p.IsReply = true
	p.OriginalAuthor = "alice"
	got := InteractionHeuristic([]model.Post{p}, []string{"alice"})

	// mallory still weighs in as an author but contributes no edge
	if len(got.Persons) != 1 || got.Persons[0].Handle != "mallory" {
		t.Fatalf("persons = %+v", got.Persons)
	}
	if len(got.Relations) != 0 {
		t.Errorf("untracked source must not produce edges, got %+v", got.Relations)
	}
}

func TestKeyPersonAnalyzerParsesReply(t *testing.T) {
	reply := `{
		"key_persons": [
			{"handle": "@alice", "role_description": "driver", "importance_score": "7"},
			{"handle": "alice", "role_description": "dup", "importance_score": 1},
			{"handle": "eve", "role_description": "mentioned a lot", "importance_score": 2}
		],
		"relationships": [
			{"source": "@alice", "target": "eve", "relationship_type": "mention", "strength": 0.6},
			{"source": "alice", "target": "alice", "relationship_type": "reply", "strength": 0.2},
			{"source": "", "target": "eve", "relationship_type": "reply", "strength": 0.2}
		]
	}`
	a := &KeyPersonAnalyzer{Provider: &fakeProvider{reply: reply}}

	got := a.Analyze(context.Background(), windowPosts(), nil, []string{"alice"})
	wantPersons := []Person{{Handle: "alice", Weight: 7}, {Handle: "eve", Weight: 2}}
	if diff := cmp.Diff(wantPersons, got.Persons); diff != "" {
		t.Errorf("persons mismatch (-want +got):\n%s", diff)
	}
	wantRelations := []Relation{{Source: "alice", Target: "eve", Weight: 0.6}}
	if diff := cmp.Diff(wantRelations, got.Relations); diff != "" {
		t.Errorf("relations mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyPersonAnalyzerFallsBackOnEmptyResult(t *testing.T) {
	a := &KeyPersonAnalyzer{Provider: &fakeProvider{reply: `{"key_persons": [], "relationships": []}`}}
	posts := interactionWindow()
	tracked := []string{"alice", "bob", "carol"}

	got := a.Analyze(context.Background(), posts, nil, tracked)
	want := InteractionHeuristic(posts, tracked)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyPersonAnalyzerFallsBackOnNegativeImportance(t *testing.T) {
	a := &KeyPersonAnalyzer{Provider: &fakeProvider{reply: `{"key_persons": [{"handle": "x", "importance_score": -3}]}`}}
	got := a.Analyze(context.Background(), interactionWindow(), nil, []string{"alice"})
	want := InteractionHeuristic(interactionWindow(), []string{"alice"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}
