package insight

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"twitter-insights/internal/model"
)

// stopWords is the fixed set dropped during fallback extraction.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but if then than this that these those there here
		is are was were be been being am do does did doing have has had
		having will would can could shall should may might must not no
		nor so very just too also only own same such as at by for from
		in into of off on onto out over to under up with about against
		between through during before after above below again further
		once all any both each few more most other some it its it's im
		i'm ive you your yours he she his her they them their we our us
		me my mine what which who whom when where why how rt via amp get
		got like new one two now today day back going still really
	`) {
		stopWords[w] = struct{}{}
	}
}

type candidate struct {
	label        string
	weight       float64
	occurrences  int
	contributors map[string]float64
	postIDs      []string // ordered by engagement desc
}

// ExtractKeywords is the deterministic topic fallback: weighted token and
// bigram frequencies over the post window. Same input always yields the
// same output, including ordering. No sentiment is inferred.
//
// Descriptions contribute supplementary vocabulary only: tokens appearing
// in a member description get a small weight boost, they are never used as
// evidence on their own.
func ExtractKeywords(posts []model.Post, descriptions map[string]string, topN int) []model.TopicSummary {
	if topN <= 0 {
		topN = 5
	}
	vocab := descriptionVocabulary(descriptions)

	cands := map[string]*candidate{}
	// Iterate posts sorted by engagement desc so every candidate's postIDs
	// slice is built in ranking order without a second pass.
	ordered := make([]model.Post, len(posts))
	copy(ordered, posts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Engagement() != ordered[j].Engagement() {
			return ordered[i].Engagement() > ordered[j].Engagement()
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, p := range ordered {
		tokens := tokenize(p.Content)
		if len(tokens) == 0 {
			continue
		}
		w := 1 + math.Log(1+float64(p.Engagement()))
		seen := map[string]struct{}{}
		grams := make([]string, 0, len(tokens)*2-1)
		grams = append(grams, tokens...)
		for i := 0; i+1 < len(tokens); i++ {
			grams = append(grams, tokens[i]+" "+tokens[i+1])
		}
		for _, g := range grams {
			c := cands[g]
			if c == nil {
				c = &candidate{label: g, contributors: map[string]float64{}}
				cands[g] = c
			}
			gw := w
			if _, ok := vocab[g]; ok {
				gw *= 1.2
			}
			c.weight += gw
			c.occurrences++
			c.contributors[p.Username] += gw
			if _, dup := seen[g]; !dup {
				seen[g] = struct{}{}
				if len(c.postIDs) < 10 {
					c.postIDs = append(c.postIDs, p.ID)
				}
			}
		}
	}

	list := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		if c.occurrences < 2 && len(posts) > 3 {
			continue // single mentions are noise once the window has volume
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].weight != list[j].weight {
			return list[i].weight > list[j].weight
		}
		return list[i].label < list[j].label
	})
	if len(list) > topN {
		list = dropSubgrams(list, topN)
	}

	var maxW float64
	for _, c := range list {
		if c.weight > maxW {
			maxW = c.weight
		}
	}
	out := make([]model.TopicSummary, 0, len(list))
	for _, c := range list {
		score := 0.0
		if maxW > 0 {
			score = 10 * c.weight / maxW
		}
		contributors := map[string]float64{}
		for u, uw := range c.contributors {
			contributors[u] = uw / c.weight
		}
		out = append(out, model.TopicSummary{
			Topic:        c.label,
			Summary:      summarizeSnippets(ordered, c.label),
			Score:        score,
			RelatedPosts: c.postIDs,
			Contributors: contributors,
		})
	}
	return out
}

// dropSubgrams prefers a bigram over its component tokens when their weights
// are close, then cuts to topN.
func dropSubgrams(list []*candidate, topN int) []*candidate {
	bigramParts := map[string]float64{}
	for _, c := range list[:min(len(list), topN*2)] {
		if parts := strings.SplitN(c.label, " ", 2); len(parts) == 2 {
			for _, p := range parts {
				if c.weight > bigramParts[p] {
					bigramParts[p] = c.weight
				}
			}
		}
	}
	kept := make([]*candidate, 0, topN)
	for _, c := range list {
		if bw, ok := bigramParts[c.label]; ok && bw >= c.weight*0.8 {
			continue
		}
		kept = append(kept, c)
		if len(kept) == topN {
			break
		}
	}
	return kept
}

// summarizeSnippets builds a placeholder summary from the highest-engagement
// posts mentioning the label. Posts must already be in engagement order.
func summarizeSnippets(posts []model.Post, label string) string {
	var parts []string
	for _, p := range posts {
		if !containsToken(p.Content, label) {
			continue
		}
		parts = append(parts, snippet(p.Content, 100))
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return label
	}
	return strings.Join(parts, " | ")
}

func containsToken(content, label string) bool {
	return strings.Contains(strings.ToLower(content), label)
}

func snippet(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "…"
}

// tokenize case-folds the text and returns content tokens with URLs,
// mentions, punctuation, and stop words removed.
func tokenize(text string) []string {
	var out []string
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "www.") {
			continue
		}
		if strings.HasPrefix(raw, "@") {
			continue
		}
		tok := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func descriptionVocabulary(descriptions map[string]string) map[string]struct{} {
	vocab := map[string]struct{}{}
	for _, d := range descriptions {
		toks := tokenize(d)
		for _, t := range toks {
			vocab[t] = struct{}{}
		}
		for i := 0; i+1 < len(toks); i++ {
			vocab[toks[i]+" "+toks[i+1]] = struct{}{}
		}
	}
	return vocab
}
