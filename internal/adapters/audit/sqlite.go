package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id              TEXT PRIMARY KEY,
	assessment_id   TEXT NOT NULL DEFAULT '',
	operation       TEXT NOT NULL,
	formula_version TEXT NOT NULL,
	recorded_at     TEXT NOT NULL,
	input           TEXT NOT NULL,
	output          TEXT,
	error           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS audit_entries_recorded_at ON audit_entries (recorded_at);
`

// fixed width so that text ordering matches time ordering
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type row struct {
	ID             string  `db:"id"`
	AssessmentID   string  `db:"assessment_id"`
	Operation      string  `db:"operation"`
	FormulaVersion string  `db:"formula_version"`
	RecordedAt     string  `db:"recorded_at"`
	Input          string  `db:"input"`
	Output         *string `db:"output"`
	Error          string  `db:"error"`
}

// SQLiteSink appends entries to a SQLite table.
type SQLiteSink struct {
	db *sqlx.DB
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam
	in, err := json.Marshal(e.Input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	r := row{
		ID:             e.ID,
		AssessmentID:   e.AssessmentID,
		Operation:      e.Operation,
		FormulaVersion: e.FormulaVersion,
		RecordedAt:     e.Timestamp.UTC().Format(timestampLayout),
		Input:          string(in),
		Error:          e.Error,
	}
	if e.Output != nil {
		out, err := json.Marshal(e.Output)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		o := string(out)
		r.Output = &o
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO audit_entries
		(id, assessment_id, operation, formula_version, recorded_at, input, output, error)
		VALUES (:id, :assessment_id, :operation, :formula_version, :recorded_at, :input, :output, :error)`, r)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. It backs the
// `tcdctl audit` inspection command. Outputs are returned as raw JSON.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM audit_entries ORDER BY recorded_at DESC, id LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			ID:             r.ID,
			AssessmentID:   r.AssessmentID,
			Operation:      r.Operation,
			FormulaVersion: r.FormulaVersion,
			Error:          r.Error,
		}
		ts, err := time.Parse(timestampLayout, r.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", r.RecordedAt, err)
		}
		e.Timestamp = ts
		if err := json.Unmarshal([]byte(r.Input), &e.Input); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		if r.Output != nil {
			e.Output = json.RawMessage(*r.Output)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
