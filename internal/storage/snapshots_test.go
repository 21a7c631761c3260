package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitter-insights/internal/database"
	"twitter-insights/internal/database/testutil"
	"twitter-insights/internal/model"
)

func snapshotRows(id, lineID uuid.UUID, isPublic bool) *pgxmock.Rows {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return pgxmock.NewRows([]string{
		"id", "business_line_id", "business_line_name", "analysis_date",
		"topics", "nodes", "edges", "raw_data_summary", "is_public", "created_at",
	}).AddRow(
		id, lineID, "Tech Watch", now,
		[]byte(`[{"topic":"ai","summary":"s","score":5}]`),
		[]byte(`[{"id":"topic:ai","label":"ai","type":"topic","weight":5}]`),
		[]byte(`[]`),
		"Analysis for Tech Watch", isPublic, now,
	)
}

func TestSnapshotStoreCreate(t *testing.T) {
	querier, mock := testutil.NewMockQuerier(t)
	store := NewSnapshotStore(querier)

	mock.ExpectExec("INSERT INTO insight_snapshots").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := store.Create(context.Background(), model.Snapshot{
		BusinessLineID:   uuid.New(),
		BusinessLineName: "Tech Watch",
		AnalysisDate:     time.Now().UTC(),
		IsPublic:         true, // caller cannot pre-publish
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.IsPublic, "snapshots must start private")
	assert.NotNil(t, got.Topics)
	assert.NotNil(t, got.Nodes)
	assert.NotNil(t, got.Edges)
	testutil.ExpectationsWereMet(t, mock)
}

func TestSnapshotStoreGet(t *testing.T) {
	id := uuid.New()
	lineID := uuid.New()

	t.Run("found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectQuery("SELECT .+ FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnRows(snapshotRows(id, lineID, false))

		got, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, lineID, got.BusinessLineID)
		require.Len(t, got.Topics, 1)
		assert.Equal(t, "ai", got.Topics[0].Topic)
		require.Len(t, got.Nodes, 1)
		assert.Equal(t, model.NodeTypeTopic, got.Nodes[0].Type)
		assert.Empty(t, got.Edges)
		testutil.ExpectationsWereMet(t, mock)
	})

	t.Run("not found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectQuery("SELECT .+ FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(context.Background(), id)
		assert.ErrorIs(t, err, database.ErrNotFound)
		testutil.ExpectationsWereMet(t, mock)
	})
}

func TestSnapshotStoreListPublicOnly(t *testing.T) {
	querier, mock := testutil.NewMockQuerier(t)
	store := NewSnapshotStore(querier)

	id := uuid.New()
	lineID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM insight_snapshots WHERE .*is_public = \$\d`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(snapshotRows(id, lineID, true))

	got, err := store.List(context.Background(), model.SnapshotFilter{PublicOnly: true}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsPublic)
	testutil.ExpectationsWereMet(t, mock)
}

func TestSnapshotStoreSetVisibility(t *testing.T) {
	id := uuid.New()
	lineID := uuid.New()

	t.Run("publish", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectExec("UPDATE insight_snapshots SET is_public").
			WithArgs(true, id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectQuery("SELECT .+ FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnRows(snapshotRows(id, lineID, true))

		got, err := store.SetVisibility(context.Background(), id, true)
		require.NoError(t, err)
		assert.True(t, got.IsPublic)
		testutil.ExpectationsWereMet(t, mock)
	})

	t.Run("absent id", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectExec("UPDATE insight_snapshots SET is_public").
			WithArgs(false, id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err := store.SetVisibility(context.Background(), id, false)
		assert.ErrorIs(t, err, database.ErrNotFound)
		testutil.ExpectationsWereMet(t, mock)
	})
}

func TestSnapshotStoreDelete(t *testing.T) {
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectExec("DELETE FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, store.Delete(context.Background(), id))
		testutil.ExpectationsWereMet(t, mock)
	})

	t.Run("absent id", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectExec("DELETE FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := store.Delete(context.Background(), id)
		assert.ErrorIs(t, err, database.ErrNotFound)
		testutil.ExpectationsWereMet(t, mock)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		store := NewSnapshotStore(querier)
		mock.ExpectExec("DELETE FROM insight_snapshots").
			WithArgs(id.String()).
			WillReturnError(errors.New("connection reset"))

		err := store.Delete(context.Background(), id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, database.ErrNotFound)
		testutil.ExpectationsWereMet(t, mock)
	})
}
