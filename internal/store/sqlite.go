package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/reconcile"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local runs
// without a Postgres server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	cik             TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	sic             TEXT,
	sic_description TEXT,
	tickers         TEXT,
	exchanges       TEXT,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS filings (
	accession_number TEXT PRIMARY KEY,
	cik              TEXT NOT NULL,
	form             TEXT NOT NULL,
	filing_date      TEXT,
	report_date      TEXT,
	primary_document TEXT,
	size_bytes       INTEGER,
	is_xbrl          INTEGER NOT NULL DEFAULT 0,
	folder_url       TEXT,
	document_url     TEXT
);

CREATE TABLE IF NOT EXISTS facts (
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
	value_numeric    REAL,
	unit_ref         TEXT,
	PRIMARY KEY (accession_number, fact_id)
);

CREATE TABLE IF NOT EXISTS sync_log (
	id           TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL,
	cik          TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	rows_stored  INTEGER NOT NULL DEFAULT 0,
	failures     INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_filings_cik ON filings(cik);
CREATE INDEX IF NOT EXISTS idx_facts_cik ON facts(cik);
CREATE INDEX IF NOT EXISTS idx_facts_standard_name ON facts(standard_name);
CREATE INDEX IF NOT EXISTS idx_sync_log_started ON sync_log(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, company Company) error {
	tickers, err := json.Marshal(company.Tickers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tickers")
	}
	exchanges, err := json.Marshal(company.Exchanges)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal exchanges")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (cik, name, sic, sic_description, tickers, exchanges, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (cik) DO UPDATE SET
		   name = excluded.name, sic = excluded.sic,
		   sic_description = excluded.sic_description,
		   tickers = excluded.tickers, exchanges = excluded.exchanges,
		   updated_at = datetime('now')`,
		company.CIK, company.Name, company.SIC, company.SICDescription,
		string(tickers), string(exchanges),
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", company.CIK)
}

func (s *SQLiteStore) UpsertFilings(ctx context.Context, filings []edgar.Filing) (int64, error) {
	if len(filings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO filings (accession_number, cik, form, filing_date, report_date,
		   primary_document, size_bytes, is_xbrl, folder_url, document_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (accession_number) DO UPDATE SET
		   cik = excluded.cik, form = excluded.form,
		   filing_date = excluded.filing_date, report_date = excluded.report_date,
		   primary_document = excluded.primary_document, size_bytes = excluded.size_bytes,
		   is_xbrl = excluded.is_xbrl, folder_url = excluded.folder_url,
		   document_url = excluded.document_url`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare filings upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	seen := make(map[string]bool, len(filings))
	for _, f := range filings {
		if seen[f.AccessionNumber] {
			continue
		}
		seen[f.AccessionNumber] = true
		if _, err := stmt.ExecContext(ctx,
			f.AccessionNumber, f.CIK, f.Form,
			f.FilingDate.Format("2006-01-02"), f.ReportDate.Format("2006-01-02"),
			f.PrimaryDocument, int64(f.Size), f.IsXBRL, f.FolderURL, f.DocumentURL,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert filing %s", f.AccessionNumber)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit filings")
	}
	return n, nil
}

func (s *SQLiteStore) UpsertFacts(ctx context.Context, cik string, rows []reconcile.Row) (int64, error) {
	deduped := dedupeFactRows(rows)
	if len(deduped) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO facts (accession_number, fact_id, cik, fact_name, label_text,
		   standard_name, segment_axis, segment_value, start_date, end_date, instant,
		   period_months, months_ended, value_text, value_numeric, unit_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (accession_number, fact_id) DO UPDATE SET
		   cik = excluded.cik, fact_name = excluded.fact_name,
		   label_text = excluded.label_text, standard_name = excluded.standard_name,
		   segment_axis = excluded.segment_axis, segment_value = excluded.segment_value,
		   start_date = excluded.start_date, end_date = excluded.end_date,
		   instant = excluded.instant, period_months = excluded.period_months,
		   months_ended = excluded.months_ended, value_text = excluded.value_text,
		   value_numeric = excluded.value_numeric, unit_ref = excluded.unit_ref`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare facts upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, r := range deduped {
		if _, err := stmt.ExecContext(ctx,
			r.AccessionNumber, r.FactID, cik, r.FactName, r.LabelText,
			r.StandardName, r.SegmentAxis, r.SegmentValue, r.StartDate,
			r.EndDate, r.Instant, r.PeriodMonths, r.MonthsEnded, r.Value,
			r.Numeric, r.UnitRef,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert fact %s/%s", r.AccessionNumber, r.FactID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit facts")
	}
	return n, nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, ticker, cik string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, ticker, cik, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, ticker, cik, RunStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: start run for %s", ticker)
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, rowsStored int64, failures int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_log SET status = ?, completed_at = ?, rows_stored = ?, failures = ? WHERE id = ?`,
		RunStatusComplete, time.Now().UTC(), rowsStored, failures, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		RunStatusFailed, time.Now().UTC(), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticker, cik, status, started_at, completed_at, rows_stored, failures, error
		 FROM sync_log ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var errStr *string
		if err := rows.Scan(&r.ID, &r.Ticker, &r.CIK, &r.Status, &r.StartedAt,
			&r.CompletedAt, &r.RowsStored, &r.Failures, &errStr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if errStr != nil {
			r.Error = *errStr
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, ticker string) (*Company, error) {
	var c Company
	var tickers, exchanges string
	err := s.db.QueryRowContext(ctx,
		`SELECT cik, name, sic, sic_description, tickers, exchanges
		 FROM companies
		 WHERE cik = ?1 OR EXISTS (
		   SELECT 1 FROM json_each(companies.tickers) WHERE json_each.value = ?1
		 )`,
		ticker,
	).Scan(&c.CIK, &c.Name, &c.SIC, &c.SICDescription, &tickers, &exchanges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", ticker)
	}
	if err := json.Unmarshal([]byte(tickers), &c.Tickers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tickers")
	}
	if err := json.Unmarshal([]byte(exchanges), &c.Exchanges); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal exchanges")
	}
	return &c, nil
}

func (s *SQLiteStore) ListFacts(ctx context.Context, cik string, limit int) ([]FactRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT accession_number, fact_name, label_text, standard_name,
		        segment_axis, segment_value, start_date, end_date, instant,
		        months_ended, value_text, value_numeric, unit_ref
		 FROM facts WHERE cik = ?
		 ORDER BY standard_name, segment_value, end_date, instant LIMIT ?`,
		cik, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list facts for %s", cik)
	}
	defer rows.Close() //nolint:errcheck

	var facts []FactRecord
	for rows.Next() {
		var f FactRecord
		var labelText, standardName, segAxis, segValue *string
		var startDate, endDate, instant, monthsEnded, unitRef *string
		if err := rows.Scan(&f.AccessionNumber, &f.FactName, &labelText,
			&standardName, &segAxis, &segValue, &startDate, &endDate,
			&instant, &monthsEnded, &f.Value, &f.Numeric, &unitRef); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fact")
		}
		f.LabelText = deref(labelText)
		f.StandardName = deref(standardName)
		f.SegmentAxis = deref(segAxis)
		f.SegmentValue = deref(segValue)
		f.StartDate = deref(startDate)
		f.EndDate = deref(endDate)
		f.Instant = deref(instant)
		f.MonthsEnded = deref(monthsEnded)
		f.UnitRef = deref(unitRef)
		facts = append(facts, f)
	}
	return facts, eris.Wrap(rows.Err(), "sqlite: list facts iterate")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
