package insight

import (
	"sort"
	"strings"

	"twitter-insights/internal/model"
)

// defaultEdgeWeightCap bounds aggregated edge weights so a pile of raw
// signals for the same pair cannot dwarf the rest of the graph.
const defaultEdgeWeightCap = 10.0

// GraphBuilder merges topic and key-person results into one node/edge set.
// It is a pure step: no external calls, deterministic output order.
type GraphBuilder struct {
	EdgeWeightCap float64
}

// Build applies the canonical-identity rules: node ids are prefixed
// ("user:", "topic:"), duplicate nodes merge by max weight, duplicate
// (source,target) edges aggregate by capped sum, edges referencing unknown
// nodes are dropped, and no topic-sourced edge is ever emitted.
func (g GraphBuilder) Build(topics []model.TopicSummary, persons PersonsResult, posts []model.Post) ([]model.GraphNode, []model.GraphEdge) {
	weightCap := g.EdgeWeightCap
	if weightCap <= 0 {
		weightCap = defaultEdgeWeightCap
	}

	type nodeAcc struct {
		node  model.GraphNode
		order int
	}
	nodes := map[string]*nodeAcc{}
	addNode := func(n model.GraphNode) {
		if acc, ok := nodes[n.ID]; ok {
			// Same entity reached through multiple signals: max, not sum,
			// so contributing signals are not double counted.
			if n.Weight > acc.node.Weight {
				acc.node.Weight = n.Weight
			}
			return
		}
		nodes[n.ID] = &nodeAcc{node: n, order: len(nodes)}
	}

	for _, p := range persons.Persons {
		addNode(model.GraphNode{
			ID:     model.UserNodeID(p.Handle),
			Label:  p.Handle,
			Type:   model.NodeTypeUser,
			Weight: p.Weight,
		})
	}
	topicLabels := map[string]string{}
	for _, t := range topics {
		addNode(model.GraphNode{
			ID:     model.TopicNodeID(t.Topic),
			Label:  t.Topic,
			Type:   model.NodeTypeTopic,
			Weight: t.Score,
		})
		topicLabels[strings.ToLower(t.Topic)] = t.Topic
	}

	type edgeAcc struct {
		edge  model.GraphEdge
		order int
	}
	edges := map[[2]string]*edgeAcc{}
	addEdge := func(source, target string, weight float64) {
		if weight <= 0 {
			return
		}
		if _, ok := nodes[source]; !ok {
			return
		}
		if _, ok := nodes[target]; !ok {
			return
		}
		if strings.HasPrefix(source, model.NodePrefixTopic) {
			return // topic→* is never valid
		}
		key := [2]string{source, target}
		if acc, ok := edges[key]; ok {
			acc.edge.Weight = min(acc.edge.Weight+weight, weightCap)
			return
		}
		edges[key] = &edgeAcc{
			edge:  model.GraphEdge{Source: source, Target: target, Weight: min(weight, weightCap)},
			order: len(edges),
		}
	}

	// user→user edges from the relationship data. A relation endpoint may
	// name a topic; resolve it so user→topic relations survive and
	// topic-sourced ones are discarded by addEdge.
	for _, r := range persons.Relations {
		addEdge(resolveNodeID(r.Source, topicLabels), resolveNodeID(r.Target, topicLabels), r.Weight)
	}

	// user→topic edges: analyzer-reported contribution strength when
	// available, otherwise the user's share of posts mentioning the topic.
	for _, t := range topics {
		target := model.TopicNodeID(t.Topic)
		if len(t.Contributors) > 0 {
			for _, handle := range sortedKeys(t.Contributors) {
				addEdge(model.UserNodeID(handle), target, t.Contributors[handle])
			}
			continue
		}
		mentions := map[string]int{}
		total := 0
		lower := strings.ToLower(t.Topic)
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Content), lower) {
				mentions[p.Username]++
				total++
			}
		}
		for _, handle := range sortedKeys(mentions) {
			addEdge(model.UserNodeID(handle), target, 0.8*t.Score*float64(mentions[handle])/float64(total))
		}
	}

	outNodes := make([]model.GraphNode, 0, len(nodes))
	for _, acc := range nodes {
		outNodes = append(outNodes, acc.node)
	}
	sort.Slice(outNodes, func(i, j int) bool {
		return nodes[outNodes[i].ID].order < nodes[outNodes[j].ID].order
	})
	outEdges := make([]model.GraphEdge, 0, len(edges))
	accs := make([]*edgeAcc, 0, len(edges))
	for _, acc := range edges {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].order < accs[j].order })
	for _, acc := range accs {
		outEdges = append(outEdges, acc.edge)
	}
	return outNodes, outEdges
}

// resolveNodeID maps a raw relation endpoint to a canonical node id. Known
// topic labels resolve to topic nodes; everything else is a user handle.
func resolveNodeID(raw string, topicLabels map[string]string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, model.NodePrefixTopic) {
		return raw
	}
	if strings.HasPrefix(raw, model.NodePrefixUser) {
		return raw
	}
	if label, ok := topicLabels[strings.ToLower(raw)]; ok {
		return model.TopicNodeID(label)
	}
	return model.UserNodeID(strings.TrimPrefix(raw, "@"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
