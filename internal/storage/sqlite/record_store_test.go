package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(":memory:")
	if err != nil {
		t.Fatalf("NewRecordStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func rec(id, content string, at time.Time) types.MemoryRecord {
	return types.MemoryRecord{Identifier: id, Namespace: "/", Content: content, CreatedAt: at}
}

func TestUpsertBatchWritesAndReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	written, err := store.UpsertBatch(ctx, []types.MemoryRecord{
		rec("rec:a", "name: John Gro", now),
		rec("rec:b", "hobby: chess", now),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected written=2, got %d", written)
	}

	got, err := store.Get(ctx, "rec:a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "name: John Gro" {
		t.Errorf("unexpected content %q", got.Content)
	}
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := rec("rec:name", "name: John Gro", time.Now().UTC())
	if _, err := store.UpsertBatch(ctx, []types.MemoryRecord{first}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := rec("rec:name", "name: John Growe", time.Now().UTC().Add(time.Minute))
	if _, err := store.UpsertBatch(ctx, []types.MemoryRecord{second}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "rec:name")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "name: John Growe" {
		t.Errorf("expected latest value to win, got %q", got.Content)
	}

	list, err := store.ListByNamespace(ctx, "/", 10)
	if err != nil {
		t.Fatalf("ListByNamespace failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected exactly one record after re-upsert, got %d", len(list))
	}
}

func TestUpsertBatchLastWriterWinsWithinBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.UpsertBatch(ctx, []types.MemoryRecord{
		rec("rec:name", "name: John Gro", now),
		rec("rec:name", "name: John Growe", now),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	got, err := store.Get(ctx, "rec:name")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "name: John Growe" {
		t.Errorf("expected last write in batch to win, got %q", got.Content)
	}
}

func TestUpsertBatchEmptyIsNoOp(t *testing.T) {
	store := newTestStore(t)

	written, err := store.UpsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if written != 0 {
		t.Errorf("expected written=0 for empty batch, got %d", written)
	}
}

func TestUpsertBatchRejectsMissingIdentifier(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertBatch(context.Background(), []types.MemoryRecord{
		{Namespace: "/", Content: "name: John Gro", CreatedAt: time.Now()},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "rec:missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
