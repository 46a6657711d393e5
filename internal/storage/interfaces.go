// Package storage provides the record store contract for the Recall
// pipeline. Backends implement append-style upsert-by-identifier semantics;
// durability, indexing, and retention are their responsibility.
package storage

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// RecordStore persists memory records with upsert-by-identifier semantics.
type RecordStore interface {
	// UpsertBatch writes all records in request order. A record whose
	// identifier already exists replaces its content and timestamp
	// (last-writer-wins by request order within the batch). An empty batch
	// is a no-op returning 0. If the underlying store rejects the batch the
	// whole call fails with ErrWriteFailed and no partial subset is kept;
	// identifiers are deterministic, so callers may retry the entire batch.
	UpsertBatch(ctx context.Context, records []types.MemoryRecord) (int, error)

	// Get retrieves a record by identifier.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, identifier string) (*types.MemoryRecord, error)

	// ListByNamespace returns up to limit records in a namespace, most
	// recently written first. Debug/diagnostic surface only; the retrieval
	// read path lives outside this service.
	ListByNamespace(ctx context.Context, namespace string, limit int) ([]types.MemoryRecord, error)

	// Close releases any resources held by the store.
	Close() error
}

// EmbeddingSink optionally stores a vector embedding alongside a record.
// The postgres store implements it when the pgvector extension is present;
// callers treat absence (or errors) as non-fatal enrichment.
type EmbeddingSink interface {
	StoreEmbedding(ctx context.Context, identifier string, embedding []float32, model string) error
}
