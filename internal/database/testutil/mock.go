package testutil

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"twitter-insights/internal/database"
)

// NewMockQuerier builds a pgxmock pool exposed through the repository
// Querier interface. Close is registered on test cleanup.
func NewMockQuerier(t *testing.T) (database.Querier, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, mock
}

// ExpectationsWereMet fails the test when the mock saw an unexpected or
// missing call.
func ExpectationsWereMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}
