package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLiteSink is an optional structured audit sink, selected when the
// config names a sqlite path, offering queryable audit history instead
// of (or alongside) the line-delimited JSON sink — grounded on the
// teacher's direct dependency on modernc.org/sqlite for its own
// embedded session store.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) a sqlite database at path and
// ensures the audit_events table exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	call_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	decision TEXT,
	result_kind TEXT,
	duration_ms INTEGER,
	context_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_events_call_id ON audit_events(call_id);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

// Emit inserts ev as one row. Failures are logged, not propagated.
func (s *SQLiteSink) Emit(ctx context.Context, ev Event) {
	ctxJSON, err := json.Marshal(ev.Context)
	if err != nil {
		ctxJSON = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (kind, call_id, tool, timestamp, decision, result_kind, duration_ms, context_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.CallID, ev.Tool, ev.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		ev.Decision, ev.ResultKind, ev.DurationMS, string(ctxJSON),
	)
	if err != nil {
		slog.Warn("audit.sqlite_write_failed", "error", err)
	}
}

// Close closes the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
