package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"twitter-insights/internal/database"
	"twitter-insights/internal/model"
)

const snapshotsTable = "insight_snapshots"

var snapshotColumns = []string{
	"id", "business_line_id", "business_line_name", "analysis_date",
	"topics", "nodes", "edges", "raw_data_summary", "is_public", "created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SnapshotStore persists analysis snapshots in postgres. Snapshots are
// immutable after insert except for the is_public flag and deletion.
type SnapshotStore struct {
	q database.Querier
}

func NewSnapshotStore(q database.Querier) *SnapshotStore {
	return &SnapshotStore{q: q}
}

type snapshotRow struct {
	ID               uuid.UUID `db:"id"`
	BusinessLineID   uuid.UUID `db:"business_line_id"`
	BusinessLineName string    `db:"business_line_name"`
	AnalysisDate     time.Time `db:"analysis_date"`
	Topics           []byte    `db:"topics"`
	Nodes            []byte    `db:"nodes"`
	Edges            []byte    `db:"edges"`
	RawDataSummary   string    `db:"raw_data_summary"`
	IsPublic         bool      `db:"is_public"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r snapshotRow) toModel() (model.Snapshot, error) {
	snap := model.Snapshot{
		ID:               r.ID,
		BusinessLineID:   r.BusinessLineID,
		BusinessLineName: r.BusinessLineName,
		AnalysisDate:     r.AnalysisDate,
		RawDataSummary:   r.RawDataSummary,
		IsPublic:         r.IsPublic,
		CreatedAt:        r.CreatedAt,
	}
	if err := json.Unmarshal(r.Topics, &snap.Topics); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode topics: %w", err)
	}
	if err := json.Unmarshal(r.Nodes, &snap.Nodes); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode nodes: %w", err)
	}
	if err := json.Unmarshal(r.Edges, &snap.Edges); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode edges: %w", err)
	}
	return snap, nil
}

// Create always inserts a new record; it never upserts. The id and insertion
// timestamp are assigned here.
func (s *SnapshotStore) Create(ctx context.Context, snap model.Snapshot) (model.Snapshot, error) {
	topics, err := json.Marshal(orEmptyTopics(snap.Topics))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("encode topics: %w", err)
	}
	nodes, err := json.Marshal(orEmptyNodes(snap.Nodes))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("encode nodes: %w", err)
	}
	edges, err := json.Marshal(orEmptyEdges(snap.Edges))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("encode edges: %w", err)
	}
	snap.ID = uuid.New()
	snap.CreatedAt = time.Now().UTC()
	snap.IsPublic = false // snapshots start private

	query, args, err := psql.Insert(snapshotsTable).
		Columns(snapshotColumns...).
		Values(snap.ID, snap.BusinessLineID, snap.BusinessLineName, snap.AnalysisDate,
			topics, nodes, edges, snap.RawDataSummary, snap.IsPublic, snap.CreatedAt).
		ToSql()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return model.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	snap.Topics = orEmptyTopics(snap.Topics)
	snap.Nodes = orEmptyNodes(snap.Nodes)
	snap.Edges = orEmptyEdges(snap.Edges)
	return snap, nil
}

// Get returns a snapshot by id.
func (s *SnapshotStore) Get(ctx context.Context, id uuid.UUID) (model.Snapshot, error) {
	query, args, err := psql.Select(snapshotColumns...).
		From(snapshotsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("build select: %w", err)
	}
	var row snapshotRow
	if err := pgxscan.Get(ctx, s.q, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, database.ErrNotFound
		}
		return model.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return row.toModel()
}

// List returns snapshots matching the filter, newest analysis first.
func (s *SnapshotStore) List(ctx context.Context, f model.SnapshotFilter, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	b := psql.Select(snapshotColumns...).
		From(snapshotsTable).
		OrderBy("analysis_date DESC").
		Limit(uint64(limit))
	if f.BusinessLineID != nil {
		b = b.Where(sq.Eq{"business_line_id": *f.BusinessLineID})
	}
	if f.StartDate != nil {
		b = b.Where(sq.GtOrEq{"analysis_date": *f.StartDate})
	}
	if f.EndDate != nil {
		b = b.Where(sq.LtOrEq{"analysis_date": *f.EndDate})
	}
	if f.PublicOnly {
		b = b.Where(sq.Eq{"is_public": true})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []snapshotRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]model.Snapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Latest returns the most recent snapshot by analysis_date, optionally
// scoped to a line, or nil when none exists.
func (s *SnapshotStore) Latest(ctx context.Context, lineID *uuid.UUID, publicOnly bool) (*model.Snapshot, error) {
	snaps, err := s.List(ctx, model.SnapshotFilter{BusinessLineID: lineID, PublicOnly: publicOnly}, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// SetVisibility toggles the is_public flag, the only mutable field.
func (s *SnapshotStore) SetVisibility(ctx context.Context, id uuid.UUID, isPublic bool) (model.Snapshot, error) {
	query, args, err := psql.Update(snapshotsTable).
		Set("is_public", isPublic).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("build update: %w", err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("update visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Snapshot{}, database.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a snapshot; deleting an absent id reports ErrNotFound
// rather than silently succeeding.
func (s *SnapshotStore) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete(snapshotsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

func orEmptyTopics(t []model.TopicSummary) []model.TopicSummary {
	if t == nil {
		return []model.TopicSummary{}
	}
	return t
}

func orEmptyNodes(n []model.GraphNode) []model.GraphNode {
	if n == nil {
		return []model.GraphNode{}
	}
	return n
}

func orEmptyEdges(e []model.GraphEdge) []model.GraphEdge {
	if e == nil {
		return []model.GraphEdge{}
	}
	return e
}
