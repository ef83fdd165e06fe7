package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresUpsertCompany(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO edgar\.companies`).
		WithArgs("0000320193", "Apple Inc.", "3571", "Electronic Computers",
			[]string{"AAPL"}, []string{"Nasdaq"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertCompany(context.Background(), Company{
		CIK:            "0000320193",
		Name:           "Apple Inc.",
		SIC:            "3571",
		SICDescription: "Electronic Computers",
		Tickers:        []string{"AAPL"},
		Exchanges:      []string{"Nasdaq"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunLog(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO edgar\.sync_log`).
		WithArgs(pgxmock.AnyArg(), "AAPL", "0000320193", RunStatusRunning).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	runID, err := s.StartRun(context.Background(), "AAPL", "0000320193")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	mock.ExpectExec(`UPDATE edgar\.sync_log`).
		WithArgs(RunStatusComplete, int64(120), 2, runID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteRun(context.Background(), runID, 120, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE edgar\.sync_log`).
		WithArgs(RunStatusComplete, int64(0), 0, "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "nope", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestPostgresFailRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE edgar\.sync_log`).
		WithArgs(RunStatusFailed, "boom", "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockStore(t)

	started := time.Now().UTC()
	completed := started.Add(time.Minute)
	errMsg := "partial failure"

	mock.ExpectQuery(`SELECT id, ticker, cik, status`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "ticker", "cik", "status", "started_at", "completed_at",
			"rows_stored", "failures", "error",
		}).AddRow("run-1", "AAPL", "0000320193", RunStatusComplete, started,
			&completed, int64(100), 1, &errMsg))

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, int64(100), runs[0].RowsStored)
	assert.Equal(t, "partial failure", runs[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS edgar`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
