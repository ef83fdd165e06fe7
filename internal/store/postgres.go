package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/edgar-sync/internal/db"
	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/reconcile"
)

// PostgresStore implements Store on pgxpool, all tables under the edgar
// schema.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS edgar;

CREATE TABLE IF NOT EXISTS edgar.companies (
	cik             TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	sic             TEXT,
	sic_description TEXT,
	tickers         TEXT[],
	exchanges       TEXT[],
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS edgar.filings (
	accession_number TEXT PRIMARY KEY,
	cik              TEXT NOT NULL,
	form             TEXT NOT NULL,
	filing_date      DATE,
	report_date      DATE,
	primary_document TEXT,
	size_bytes       BIGINT,
	is_xbrl          BOOLEAN NOT NULL DEFAULT false,
	folder_url       TEXT,
	document_url     TEXT
);

CREATE TABLE IF NOT EXISTS edgar.facts (
	accession_number TEXT NOT NULL,
	fact_id          TEXT NOT NULL,
	cik              TEXT NOT NULL,
	fact_name        TEXT NOT NULL,
	label_text       TEXT,
	standard_name    TEXT,
	segment_axis     TEXT,
	segment_value    TEXT,
	start_date       TEXT,
	end_date         TEXT,
	instant          TEXT,
	period_months    INTEGER,
	months_ended     TEXT,
	value_text       TEXT,
	value_numeric    DOUBLE PRECISION,
	unit_ref         TEXT,
	PRIMARY KEY (accession_number, fact_id)
);

CREATE TABLE IF NOT EXISTS edgar.sync_log (
	id           TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL,
	cik          TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	rows_stored  BIGINT NOT NULL DEFAULT 0,
	failures     INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_filings_cik ON edgar.filings(cik);
CREATE INDEX IF NOT EXISTS idx_facts_cik ON edgar.facts(cik);
CREATE INDEX IF NOT EXISTS idx_facts_standard_name ON edgar.facts(standard_name);
CREATE INDEX IF NOT EXISTS idx_sync_log_started ON edgar.sync_log(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, company Company) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO edgar.companies (cik, name, sic, sic_description, tickers, exchanges, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (cik) DO UPDATE SET
		   name = $2, sic = $3, sic_description = $4, tickers = $5, exchanges = $6, updated_at = now()`,
		company.CIK, company.Name, company.SIC, company.SICDescription,
		company.Tickers, company.Exchanges,
	)
	return eris.Wrapf(err, "postgres: upsert company %s", company.CIK)
}

var filingColumns = []string{
	"accession_number", "cik", "form", "filing_date", "report_date",
	"primary_document", "size_bytes", "is_xbrl", "folder_url", "document_url",
}

func (s *PostgresStore) UpsertFilings(ctx context.Context, filings []edgar.Filing) (int64, error) {
	rows := make([][]any, 0, len(filings))
	seen := make(map[string]bool, len(filings))
	for _, f := range filings {
		if seen[f.AccessionNumber] {
			continue
		}
		seen[f.AccessionNumber] = true
		rows = append(rows, []any{
			f.AccessionNumber, f.CIK, f.Form, f.FilingDate, f.ReportDate,
			f.PrimaryDocument, int64(f.Size), f.IsXBRL, f.FolderURL, f.DocumentURL,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "edgar.filings",
		Columns:      filingColumns,
		ConflictKeys: []string{"accession_number"},
	}, rows)
}

var factColumns = []string{
	"accession_number", "fact_id", "cik", "fact_name", "label_text",
	"standard_name", "segment_axis", "segment_value", "start_date",
	"end_date", "instant", "period_months", "months_ended", "value_text",
	"value_numeric", "unit_ref",
}

func (s *PostgresStore) UpsertFacts(ctx context.Context, cik string, rows []reconcile.Row) (int64, error) {
	deduped := dedupeFactRows(rows)
	values := make([][]any, 0, len(deduped))
	for _, r := range deduped {
		values = append(values, []any{
			r.AccessionNumber, r.FactID, cik, r.FactName, r.LabelText,
			r.StandardName, r.SegmentAxis, r.SegmentValue, r.StartDate,
			r.EndDate, r.Instant, r.PeriodMonths, r.MonthsEnded, r.Value,
			r.Numeric, r.UnitRef,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "edgar.facts",
		Columns:      factColumns,
		ConflictKeys: []string{"accession_number", "fact_id"},
	}, values)
}

func (s *PostgresStore) StartRun(ctx context.Context, ticker, cik string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO edgar.sync_log (id, ticker, cik, status, started_at)
		 VALUES ($1, $2, $3, $4, now())`,
		id, ticker, cik, RunStatusRunning,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: start run for %s", ticker)
	}
	return id, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, rowsStored int64, failures int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE edgar.sync_log
		 SET status = $1, completed_at = now(), rows_stored = $2, failures = $3
		 WHERE id = $4`,
		RunStatusComplete, rowsStored, failures, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE edgar.sync_log
		 SET status = $1, completed_at = now(), error = $2
		 WHERE id = $3`,
		RunStatusFailed, errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticker, cik, status, started_at, completed_at, rows_stored, failures, error
		 FROM edgar.sync_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var errStr *string
		if err := rows.Scan(&r.ID, &r.Ticker, &r.CIK, &r.Status, &r.StartedAt,
			&r.CompletedAt, &r.RowsStored, &r.Failures, &errStr); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errStr != nil {
			r.Error = *errStr
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetCompany(ctx context.Context, ticker string) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx,
		`SELECT cik, name, sic, sic_description, tickers, exchanges
		 FROM edgar.companies WHERE $1 = ANY(tickers) OR cik = $1`,
		ticker,
	).Scan(&c.CIK, &c.Name, &c.SIC, &c.SICDescription, &c.Tickers, &c.Exchanges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", ticker)
	}
	return &c, nil
}

func (s *PostgresStore) ListFacts(ctx context.Context, cik string, limit int) ([]FactRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT accession_number, fact_name, label_text, standard_name,
		        segment_axis, segment_value, start_date, end_date, instant,
		        months_ended, value_text, value_numeric, unit_ref
		 FROM edgar.facts WHERE cik = $1
		 ORDER BY standard_name, segment_value, end_date, instant LIMIT $2`,
		cik, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list facts for %s", cik)
	}
	defer rows.Close()

	var facts []FactRecord
	for rows.Next() {
		var f FactRecord
		if err := rows.Scan(&f.AccessionNumber, &f.FactName, &f.LabelText,
			&f.StandardName, &f.SegmentAxis, &f.SegmentValue, &f.StartDate,
			&f.EndDate, &f.Instant, &f.MonthsEnded, &f.Value, &f.Numeric,
			&f.UnitRef); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fact")
		}
		facts = append(facts, f)
	}
	return facts, eris.Wrap(rows.Err(), "postgres: list facts iterate")
}
