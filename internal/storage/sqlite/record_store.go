// Package sqlite provides a SQLite implementation of the record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// RecordStore implements storage.RecordStore using SQLite.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore opens a SQLite database, configures WAL mode, and applies
// the schema.
func NewRecordStore(dsn string) (*RecordStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Busy timeout so callers wait instead of getting an immediate
	// SQLITE_BUSY error when the connection is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

// UpsertBatch writes all records in one transaction. Existing identifiers
// are overwritten; the batch succeeds or fails as a whole.
func (s *RecordStore) UpsertBatch(ctx context.Context, records []types.MemoryRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	for _, rec := range records {
		if rec.Identifier == "" {
			return 0, fmt.Errorf("%w: record identifier is required", storage.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %v", storage.ErrWriteFailed, err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO memory_records (id, namespace, content, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace  = excluded.namespace,
			content    = excluded.content,
			created_at = excluded.created_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare upsert: %v", storage.ErrWriteFailed, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Identifier, rec.Namespace, rec.Content, rec.CreatedAt); err != nil {
			return 0, fmt.Errorf("%w: upsert %s: %v", storage.ErrWriteFailed, rec.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", storage.ErrWriteFailed, err)
	}

	return len(records), nil
}

// Get retrieves a record by identifier.
func (s *RecordStore) Get(ctx context.Context, identifier string) (*types.MemoryRecord, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", storage.ErrInvalidInput)
	}

	const query = `
		SELECT id, namespace, content, created_at
		FROM memory_records
		WHERE id = ?
	`

	var rec types.MemoryRecord
	err := s.db.QueryRowContext(ctx, query, identifier).Scan(
		&rec.Identifier, &rec.Namespace, &rec.Content, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// ListByNamespace returns up to limit records in a namespace, most recently
// written first.
func (s *RecordStore) ListByNamespace(ctx context.Context, namespace string, limit int) ([]types.MemoryRecord, error) {
	if limit < 1 {
		limit = 50
	}

	const query = `
		SELECT id, namespace, content, created_at
		FROM memory_records
		WHERE namespace = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []types.MemoryRecord
	for rows.Next() {
		var rec types.MemoryRecord
		if err := rows.Scan(&rec.Identifier, &rec.Namespace, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// Compile-time assertion.
var _ storage.RecordStore = (*RecordStore)(nil)
