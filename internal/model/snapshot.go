package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a persisted analysis result. Immutable after creation except
// for the IsPublic flag and deletion.
type Snapshot struct {
	ID               uuid.UUID      `json:"id"`
	BusinessLineID   uuid.UUID      `json:"business_line_id"`
	BusinessLineName string         `json:"business_line_name,omitempty"`
	AnalysisDate     time.Time      `json:"analysis_date"`
	Topics           []TopicSummary `json:"topics"`
	Nodes            []GraphNode    `json:"nodes"`
	Edges            []GraphEdge    `json:"edges"`
	RawDataSummary   string         `json:"raw_data_summary,omitempty"`
	IsPublic         bool           `json:"is_public"`
	CreatedAt        time.Time      `json:"created_at"`
}

// SnapshotFilter narrows snapshot listings.
type SnapshotFilter struct {
	BusinessLineID *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	PublicOnly     bool
}
