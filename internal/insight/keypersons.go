package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"twitter-insights/internal/llm"
	"twitter-insights/internal/model"
)

const keyPersonSystemPrompt = `You are an expert network analyst. Analyze the posts to identify key persons (accounts) and their relationships.
Return a JSON object with:
- "key_persons": array of objects with "handle", "role_description", "importance_score" (non-negative, higher means more influential)
- "relationships": array of objects with:
  - "source": source handle
  - "target": target handle
  - "relationship_type": one of "retweet", "reply", "quote", "mention", "topic_discussion", "collaboration"
  - "strength": relationship strength (0.0-1.0)

Pay attention to who retweets, replies to, quotes, and mentions whom, and to users discussing the same topics.
Return only the JSON object, no additional text.`

// Person is one influential account inferred from the window.
type Person struct {
	Handle string
	Weight float64
}

// Relation is a directed account-to-account relationship.
type Relation struct {
	Source string
	Target string
	Weight float64
}

// PersonsResult is the Key-Person analysis output.
type PersonsResult struct {
	Persons   []Person
	Relations []Relation
}

// KeyPersonAnalyzer infers influential accounts and their relationship
// weights, degrading to a deterministic interaction-count heuristic when the
// provider path fails.
type KeyPersonAnalyzer struct {
	Provider     llm.Provider
	Timeout      time.Duration
	ExcerptRunes int
	MaxPosts     int
}

type keyPersonReply struct {
	KeyPersons []struct {
		Handle          string    `json:"handle"`
		RoleDescription string    `json:"role_description"`
		ImportanceScore flexFloat `json:"importance_score"`
	} `json:"key_persons"`
	Relationships []struct {
		Source   string    `json:"source"`
		Target   string    `json:"target"`
		Type     string    `json:"relationship_type"`
		Strength flexFloat `json:"strength"`
	} `json:"relationships"`
}

// Analyze never fails; provider errors resolve to the interaction heuristic.
// tracked limits which accounts the fallback may emit edges for.
func (a *KeyPersonAnalyzer) Analyze(ctx context.Context, posts []model.Post, descriptions map[string]string, tracked []string) PersonsResult {
	res, err := a.analyzeLLM(ctx, posts, descriptions)
	if err != nil {
		slog.Error("key-person analyzer: provider path failed, using interaction heuristic", "err", err)
		return InteractionHeuristic(posts, tracked)
	}
	return res
}

func (a *KeyPersonAnalyzer) analyzeLLM(ctx context.Context, posts []model.Post, descriptions map[string]string) (PersonsResult, error) {
	if a.Provider == nil {
		return PersonsResult{}, fmt.Errorf("%w: no provider configured", llm.ErrProvider)
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxPosts := a.MaxPosts
	if maxPosts <= 0 {
		maxPosts = 100
	}
	excerpt := a.ExcerptRunes
	if excerpt <= 0 {
		excerpt = 280
	}
	user := fmt.Sprintf("Analyze the following posts to identify key persons and their relationships:\n\n%s\nReturn only a valid JSON object.",
		renderExcerpts(posts, descriptions, maxPosts, excerpt))
	raw, err := a.Provider.Complete(ctx, keyPersonSystemPrompt, user)
	if err != nil {
		return PersonsResult{}, err
	}

	var reply keyPersonReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &reply); err != nil {
		return PersonsResult{}, fmt.Errorf("%w: malformed key-person response: %v", llm.ErrProvider, err)
	}
	if len(reply.KeyPersons) == 0 {
		return PersonsResult{}, fmt.Errorf("%w: empty key-person result", llm.ErrProvider)
	}

	inWindow := map[string]struct{}{}
	for _, p := range posts {
		inWindow[p.Username] = struct{}{}
	}
	var res PersonsResult
	seen := map[string]struct{}{}
	for _, kp := range reply.KeyPersons {
		handle := strings.TrimPrefix(strings.TrimSpace(kp.Handle), "@")
		if handle == "" {
			continue
		}
		if kp.ImportanceScore < 0 {
			return PersonsResult{}, fmt.Errorf("%w: negative importance score for %q", llm.ErrProvider, handle)
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		if _, ok := inWindow[handle]; !ok {
			// Providers may reasonably infer indirectly-discussed accounts;
			// keep them, but leave a trace for tuning.
			slog.Warn("key-person analyzer: handle not present in window", "handle", handle)
		}
		res.Persons = append(res.Persons, Person{Handle: handle, Weight: float64(kp.ImportanceScore)})
	}
	for _, rel := range reply.Relationships {
		src := strings.TrimPrefix(strings.TrimSpace(rel.Source), "@")
		dst := strings.TrimPrefix(strings.TrimSpace(rel.Target), "@")
		if src == "" || dst == "" || src == dst {
			continue
		}
		res.Relations = append(res.Relations, Relation{Source: src, Target: dst, Weight: float64(rel.Strength)})
	}
	return res, nil
}

// InteractionHeuristic is the deterministic Key-Person fallback: each
// account weighs its authored post count, and each directed user→user edge
// counts direct interactions (reply, retweet, quote) observed in the window.
// Edges are restricted to pairs where both accounts are tracked members; no
// edges are fabricated for third parties mentioned in post text.
func InteractionHeuristic(posts []model.Post, tracked []string) PersonsResult {
	trackedSet := make(map[string]struct{}, len(tracked))
	for _, h := range tracked {
		trackedSet[h] = struct{}{}
	}
	counts := map[string]int{}
	interactions := map[[2]string]int{}
	for _, p := range posts {
		counts[p.Username]++
		if !p.IsReply && !p.IsRetweet && !p.IsQuoted {
			continue
		}
		target := p.OriginalAuthor
		if target == "" || target == p.Username {
			continue
		}
		if _, ok := trackedSet[p.Username]; !ok {
			continue
		}
		if _, ok := trackedSet[target]; !ok {
			continue
		}
		interactions[[2]string{p.Username, target}]++
	}

	var res PersonsResult
	for handle, n := range counts {
		res.Persons = append(res.Persons, Person{Handle: handle, Weight: float64(n)})
	}
	sort.Slice(res.Persons, func(i, j int) bool {
		if res.Persons[i].Weight != res.Persons[j].Weight {
			return res.Persons[i].Weight > res.Persons[j].Weight
		}
		return res.Persons[i].Handle < res.Persons[j].Handle
	})
	for pair, n := range interactions {
		res.Relations = append(res.Relations, Relation{Source: pair[0], Target: pair[1], Weight: float64(n)})
	}
	sort.Slice(res.Relations, func(i, j int) bool {
		if res.Relations[i].Source != res.Relations[j].Source {
			return res.Relations[i].Source < res.Relations[j].Source
		}
		return res.Relations[i].Target < res.Relations[j].Target
	})
	return res
}
