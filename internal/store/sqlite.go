package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidKind = errors.New("invalid analysis kind")
)

// AnonymousOwner is recorded when a caller does not identify itself.
const AnonymousOwner = "anonymous"

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    input TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_analyses_owner ON analyses(owner, created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores input and result as JSON under a fresh ID.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, owner string, kind Kind, name string, input, result any) (*Analysis, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = AnonymousOwner
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, owner, kind, name, input, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, owner, string(kind), name, string(inputJSON), string(resultJSON), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	return &Analysis{
		ID:        id,
		Owner:     owner,
		Kind:      kind,
		Name:      name,
		Input:     inputJSON,
		Result:    resultJSON,
		CreatedAt: time.Unix(now, 0),
	}, nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, kind, name, input, result, created_at
		 FROM analyses WHERE id = ?`, id,
	)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns owner's analyses, newest first. An empty owner
// lists every analysis.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, owner string) ([]*Analysis, error) {
	query := `SELECT id, owner, kind, name, input, result, created_at FROM analyses`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(sc scanner) (*Analysis, error) {
	var a Analysis
	var kind, input, result string
	var createdAt int64
	if err := sc.Scan(&a.ID, &a.Owner, &kind, &a.Name, &input, &result, &createdAt); err != nil {
		return nil, err
	}
	a.Kind = Kind(kind)
	a.Input = json.RawMessage(input)
	a.Result = json.RawMessage(result)
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}
