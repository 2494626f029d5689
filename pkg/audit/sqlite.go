package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at INTEGER NOT NULL,
	permit_id   TEXT,
	identity    TEXT NOT NULL,
	printer     TEXT NOT NULL,
	file_hash   TEXT NOT NULL,
	decision    TEXT NOT NULL,
	reason      TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_audit_log_permit_id ON audit_log(permit_id) WHERE permit_id IS NOT NULL;
CREATE TRIGGER IF NOT EXISTS audit_log_no_update BEFORE UPDATE ON audit_log
BEGIN
	SELECT RAISE(ABORT, 'audit_log is append-only');
END;
CREATE TRIGGER IF NOT EXISTS audit_log_no_delete BEFORE DELETE ON audit_log
BEGIN
	SELECT RAISE(ABORT, 'audit_log is append-only');
END;
`

// SQLiteRecorder appends entries to an audit_log table. Rows can be inserted
// and read but triggers refuse updates and deletes.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the audit database at path
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	// One writer keeps appends in the order they were made
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	return &SQLiteRecorder{db: db}, nil
}

// Record implements Recorder
func (r *SQLiteRecorder) Record(ctx context.Context, e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (recorded_at, permit_id, identity, printer, file_hash, decision, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.UnixMilli(),
		nullString(e.PermitID),
		e.Identity,
		e.Printer,
		e.FileHash,
		string(e.Decision),
		nullString(e.Reason),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// Entries returns up to limit entries, oldest first. A limit <= 0 returns all.
func (r *SQLiteRecorder) Entries(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, recorded_at, permit_id, identity, printer, file_hash, decision, reason
		FROM audit_log ORDER BY id`
	var args []interface{}
	if limit > 0 {
		query = `SELECT * FROM (
			SELECT id, recorded_at, permit_id, identity, printer, file_hash, decision, reason
			FROM audit_log ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id       int64
			atMillis int64
			permitID sql.NullString
			reason   sql.NullString
			decision string
			e        Entry
		)
		if err := rows.Scan(&id, &atMillis, &permitID, &e.Identity, &e.Printer, &e.FileHash, &decision, &reason); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.At = time.UnixMilli(atMillis).UTC()
		e.PermitID = permitID.String
		e.Reason = reason.String
		e.Decision = Decision(decision)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}

// Close closes the database
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
