package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"twitter-insights/internal/llm"
	"twitter-insights/internal/model"
)

const topicSystemPrompt = `You are an expert social media analyst. Analyze the posts and identify key topics, themes, and trends.
Return a JSON array of objects, each with:
- "topic": a concise topic name (2-5 words)
- "summary": a brief explanation (1-2 sentences)
- "score": a non-negative relevance score, higher means more important
- "sentiment": "positive", "negative", or "neutral"
- "related_post_ids": post IDs from the input most relevant to this topic (5-10 per topic)
- "related_users": objects with "handle" and "strength" (0.0-1.0) for users who actively discussed the topic

Focus on meaningful themes, not just hashtags. Consider member descriptions when available.
Return only the JSON array, no additional text.`

// TopicAnalyzer turns a post window into ranked topics via the configured
// provider, falling back to deterministic keyword extraction on any failure.
type TopicAnalyzer struct {
	Provider     llm.Provider
	Timeout      time.Duration
	ExcerptRunes int
	MaxPosts     int
	TopN         int
}

type topicReply struct {
	Topic        string      `json:"topic"`
	Summary      string      `json:"summary"`
	Score        flexFloat   `json:"score"`
	Sentiment    string      `json:"sentiment"`
	RelatedPosts []string    `json:"related_post_ids"`
	RelatedUsers []topicUser `json:"related_users"`
}

type topicUser struct {
	Handle   string    `json:"handle"`
	Strength flexFloat `json:"strength"`
}

// flexFloat tolerates providers that quote numbers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Analyze returns ranked topics for the window. It never fails: provider
// errors degrade to ExtractKeywords on the same input.
func (a *TopicAnalyzer) Analyze(ctx context.Context, posts []model.Post, descriptions map[string]string) []model.TopicSummary {
	topics, err := a.analyzeLLM(ctx, posts, descriptions)
	if err != nil {
		slog.Error("topic analyzer: provider path failed, using keyword fallback", "err", err)
		return ExtractKeywords(posts, descriptions, a.TopN)
	}
	return topics
}

func (a *TopicAnalyzer) analyzeLLM(ctx context.Context, posts []model.Post, descriptions map[string]string) ([]model.TopicSummary, error) {
	if a.Provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", llm.ErrProvider)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	user := fmt.Sprintf("Analyze the following posts and identify the top %d key topics:\n\n%s\nReturn only a valid JSON array.",
		a.topN(), renderExcerpts(posts, descriptions, a.maxPosts(), a.excerptRunes()))
	raw, err := a.Provider.Complete(ctx, topicSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var replies []topicReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &replies); err != nil {
		return nil, fmt.Errorf("%w: malformed topic response: %v", llm.ErrProvider, err)
	}
	known := knownPostIDs(posts)
	byLabel := map[string]model.TopicSummary{}
	for _, r := range replies {
		label := strings.TrimSpace(r.Topic)
		if label == "" {
			continue
		}
		if r.Score < 0 {
			return nil, fmt.Errorf("%w: negative topic score for %q", llm.ErrProvider, label)
		}
		t := model.TopicSummary{
			Topic:     label,
			Summary:   strings.TrimSpace(r.Summary),
			Score:     float64(r.Score),
			Sentiment: normalizeSentiment(r.Sentiment),
		}
		for _, id := range r.RelatedPosts {
			if _, ok := known[id]; ok {
				t.RelatedPosts = append(t.RelatedPosts, id)
			}
		}
		for _, u := range r.RelatedUsers {
			if u.Handle == "" {
				continue
			}
			if t.Contributors == nil {
				t.Contributors = map[string]float64{}
			}
			t.Contributors[u.Handle] = float64(u.Strength)
		}
		// Duplicate labels collapse to the higher-scored entry.
		if prev, dup := byLabel[label]; !dup || t.Score > prev.Score {
			byLabel[label] = t
		}
	}
	if len(byLabel) == 0 {
		return nil, fmt.Errorf("%w: empty topic result", llm.ErrProvider)
	}
	out := make([]model.TopicSummary, 0, len(byLabel))
	for _, t := range byLabel {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (a *TopicAnalyzer) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return 45 * time.Second
}

func (a *TopicAnalyzer) topN() int {
	if a.TopN > 0 {
		return a.TopN
	}
	return 5
}

func (a *TopicAnalyzer) maxPosts() int {
	if a.MaxPosts > 0 {
		return a.MaxPosts
	}
	return 100
}

func (a *TopicAnalyzer) excerptRunes() int {
	if a.ExcerptRunes > 0 {
		return a.ExcerptRunes
	}
	return 280
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.SentimentPositive:
		return model.SentimentPositive
	case model.SentimentNegative:
		return model.SentimentNegative
	case model.SentimentNeutral:
		return model.SentimentNeutral
	}
	return ""
}

// stripFences removes a markdown code fence wrapper if the provider added
// one. Anything beyond that must parse as JSON or the caller fails typed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func knownPostIDs(posts []model.Post) map[string]struct{} {
	out := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		out[p.ID] = struct{}{}
	}
	return out
}

// renderExcerpts formats the prompt body: one line per post with id, author,
// optional member description, interaction markers, and truncated text.
func renderExcerpts(posts []model.Post, descriptions map[string]string, maxPosts, excerptRunes int) string {
	b := &strings.Builder{}
	for i, p := range posts {
		if i >= maxPosts {
			break
		}
		var marks []string
		if p.IsRetweet {
			marks = append(marks, "RETWEET of @"+orUnknown(p.OriginalAuthor))
		}
		if p.IsReply {
			marks = append(marks, "REPLY to @"+orUnknown(p.OriginalAuthor))
		}
		if p.IsQuoted {
			marks = append(marks, "QUOTE of @"+orUnknown(p.OriginalAuthor))
		}
		fmt.Fprintf(b, "[ID:%s] [%s", p.ID, p.Username)
		if desc := descriptions[p.Username]; desc != "" {
			fmt.Fprintf(b, " (%s)", desc)
		}
		b.WriteString("]")
		if len(marks) > 0 {
			fmt.Fprintf(b, " %s", strings.Join(marks, " | "))
		}
		fmt.Fprintf(b, ": %s\n", snippet(p.Content, excerptRunes))
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
