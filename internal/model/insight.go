package model

// Node id prefixes. The visualization client filters on these, so they are
// part of the contract, not a formatting choice.
const (
	NodePrefixUser  = "user:"
	NodePrefixTopic = "topic:"
)

// NodeType distinguishes account nodes from topic nodes.
type NodeType string

const (
	NodeTypeUser  NodeType = "user"
	NodeTypeTopic NodeType = "topic"
)

// Sentiment labels attached to topics by the analyzer. Absent when the
// deterministic fallback produced the topic.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// TopicSummary is one ranked topic from an analysis run. Score is a relative
// importance within a single run, not normalized across runs.
type TopicSummary struct {
	Topic        string             `json:"topic"`
	Summary      string             `json:"summary"`
	Score        float64            `json:"score"`
	Sentiment    string             `json:"sentiment,omitempty"`
	RelatedPosts []string           `json:"related_post_ids,omitempty"`
	Contributors map[string]float64 `json:"contributors,omitempty"`
}

// GraphNode is a user or topic vertex. The id is derived from the entity:
// "user:"+handle or "topic:"+label.
type GraphNode struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Type   NodeType `json:"type"`
	Weight float64  `json:"weight"`
}

// UserNodeID builds the canonical node id for an account handle.
func UserNodeID(handle string) string { return NodePrefixUser + handle }

// TopicNodeID builds the canonical node id for a topic label.
func TopicNodeID(label string) string { return NodePrefixTopic + label }

// GraphEdge is a directed weighted relationship: user→topic or user→user.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Insights is one analysis result: ranked topics plus the merged graph.
type Insights struct {
	Topics []TopicSummary `json:"topics"`
	Nodes  []GraphNode    `json:"nodes"`
	Edges  []GraphEdge    `json:"edges"`
}
