package regen

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger database was created by a different
// release. Delete the database to recover; it holds history only.
var ErrSchemaMismatch = errors.New("ledger schema version mismatch")

// Record is one generation attempt, retained for idempotent inspection.
type Record struct {
	SessionID    string
	SceneID      string
	ShotID       string
	Kind         Kind
	Path         string
	Status       string
	Prompt       string
	ReferenceIDs []string
	CreatedAt    time.Time
}

// Ledger is the append-only generation history backed by SQLite.
type Ledger struct {
	db   *sql.DB
	path string
}

// OpenLedger initializes or connects to the ledger database.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ledger := &Ledger{db: db, path: path}
	if err := ledger.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := l.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create ledger schema: %w", err)
		}
		return nil
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read ledger schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, l.path)
	}
	return nil
}

// Append records one generation attempt.
func (l *Ledger) Append(ctx context.Context, rec Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO generated_artifacts
		 (session_id, scene_id, shot_id, kind, path, status, prompt, reference_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.SceneID, rec.ShotID, string(rec.Kind), rec.Path,
		rec.Status, rec.Prompt, strings.Join(rec.ReferenceIDs, ","),
		created.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append ledger record: %w", err)
	}
	return nil
}

// History returns a session's attempts, newest first.
func (l *Ledger) History(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT session_id, scene_id, shot_id, kind, path, status, prompt, reference_ids, created_at
		 FROM generated_artifacts WHERE session_id = ? ORDER BY id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query ledger history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Latest returns the most recent attempt for one unit, or false if none.
func (l *Ledger) Latest(ctx context.Context, sessionID, sceneID, shotID string, kind Kind) (Record, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT session_id, scene_id, shot_id, kind, path, status, prompt, reference_ids, created_at
		 FROM generated_artifacts
		 WHERE session_id = ? AND scene_id = ? AND shot_id = ? AND kind = ?
		 ORDER BY id DESC LIMIT 1`,
		sessionID, sceneID, shotID, string(kind))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("query latest ledger record: %w", err)
	}
	return rec, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var kind, refs, created string
	if err := row.Scan(&rec.SessionID, &rec.SceneID, &rec.ShotID, &kind,
		&rec.Path, &rec.Status, &rec.Prompt, &refs, &created); err != nil {
		return Record{}, err
	}
	rec.Kind = Kind(kind)
	if refs != "" {
		rec.ReferenceIDs = strings.Split(refs, ",")
	}
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		rec.CreatedAt = ts
	}
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger records: %w", err)
	}
	return records, nil
}
