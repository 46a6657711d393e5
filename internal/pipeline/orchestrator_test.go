package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/scrypster/recall/internal/extract"
	"github.com/scrypster/recall/internal/sensitive"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
)

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GetModel() string { return "stub-model" }

// flakyStore fails UpsertBatch a configured number of times, then delegates
// to an in-memory sqlite store.
type flakyStore struct {
	*sqlite.RecordStore
	failures int
	calls    int
}

func (f *flakyStore) UpsertBatch(ctx context.Context, records []types.MemoryRecord) (int, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, fmt.Errorf("%w: simulated outage", storage.ErrWriteFailed)
	}
	return f.RecordStore.UpsertBatch(ctx, records)
}

type captureBroadcaster struct {
	messages []interface{}
}

func (c *captureBroadcaster) Broadcast(message interface{}) {
	c.messages = append(c.messages, message)
}

func newTestStore(t *testing.T) *sqlite.RecordStore {
	t.Helper()
	store, err := sqlite.NewRecordStore(":memory:")
	if err != nil {
		t.Fatalf("NewRecordStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StoreRetryAttempts = 3
	return cfg
}

func newOrchestrator(gen *stubGenerator, store storage.RecordStore) *Orchestrator {
	return New(testConfig(), extract.NewExtractor(gen), sensitive.NewFilter(), store)
}

func payloadWith(turns ...types.ConversationTurn) *types.Payload {
	return &types.Payload{
		SessionID:      "sess-123",
		ActorID:        "actor-1",
		CurrentContext: turns,
	}
}

func userTurn(text string) types.ConversationTurn {
	return types.ConversationTurn{Role: types.RoleUser, Text: text}
}

func TestRunWritesExtractedFacts(t *testing.T) {
	gen := &stubGenerator{response: `{"facts": [
		{"key": "name", "value": "John Gro", "confidence": 0.9},
		{"key": "hobby", "value": "chess", "confidence": 0.8}
	]}`}
	store := newTestStore(t)
	feed := &captureBroadcaster{}
	orc := newOrchestrator(gen, store).WithBroadcaster(feed)

	result, err := orc.Run(context.Background(), payloadWith(
		userTurn("My name is John Gro and I love chess"),
	))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stage != types.StageDone {
		t.Errorf("expected stage %s, got %s", types.StageDone, result.Stage)
	}
	if result.Written != 2 || result.Extracted != 2 || result.Dropped != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if result.Degraded {
		t.Error("run should not be degraded")
	}

	list, err := store.ListByNamespace(context.Background(), "/", 10)
	if err != nil {
		t.Fatalf("ListByNamespace failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(list))
	}
	for _, rec := range list {
		if !strings.HasPrefix(rec.Identifier, "rec:") {
			t.Errorf("identifier %q missing rec: prefix", rec.Identifier)
		}
	}

	if len(feed.messages) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(feed.messages))
	}
	if got, ok := feed.messages[0].(*Result); !ok || got.Stage != types.StageDone {
		t.Errorf("unexpected broadcast payload: %#v", feed.messages[0])
	}
}

func TestRunCorrectionOverwritesRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gen := &stubGenerator{response: `{"facts": [{"key": "name", "value": "John Gro", "confidence": 0.9}]}`}
	orc := newOrchestrator(gen, store)
	if _, err := orc.Run(ctx, payloadWith(userTurn("I'm John Gro"))); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	gen.response = `{"facts": [{"key": "name", "value": "John Growe", "confidence": 0.95}]}`
	if _, err := orc.Run(ctx, payloadWith(userTurn("Actually it's spelled John Growe"))); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	list, err := store.ListByNamespace(ctx, "/", 10)
	if err != nil {
		t.Fatalf("ListByNamespace failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one record after correction, got %d", len(list))
	}
	if list[0].Content != "name: John Growe" {
		t.Errorf("expected corrected value, got %q", list[0].Content)
	}
}

func TestRunDropsSensitiveFacts(t *testing.T) {
	gen := &stubGenerator{response: `{"facts": [
		{"key": "name", "value": "John Gro", "confidence": 0.9},
		{"key": "ssn", "value": "123-45-6789", "confidence": 0.9}
	]}`}
	store := newTestStore(t)
	orc := newOrchestrator(gen, store)

	result, err := orc.Run(context.Background(), payloadWith(
		userTurn("I'm John Gro, SSN 123-45-6789"),
	))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Dropped != 1 {
		t.Errorf("expected 1 dropped fact, got %d", result.Dropped)
	}
	if result.Written != 1 {
		t.Errorf("expected 1 written record, got %d", result.Written)
	}

	list, err := store.ListByNamespace(context.Background(), "/", 10)
	if err != nil {
		t.Fatalf("ListByNamespace failed: %v", err)
	}
	for _, rec := range list {
		if strings.Contains(rec.Content, "123-45-6789") {
			t.Errorf("sensitive value reached the store: %q", rec.Content)
		}
	}
}

func TestRunDegradesOnUnparseableModelOutput(t *testing.T) {
	gen := &stubGenerator{response: "I cannot extract facts from this conversation."}
	store := newTestStore(t)
	orc := newOrchestrator(gen, store)

	result, err := orc.Run(context.Background(), payloadWith(userTurn("hello")))
	if err != nil {
		t.Fatalf("degraded run must not return an error, got %v", err)
	}
	if result.Stage != types.StageDone {
		t.Errorf("expected stage %s, got %s", types.StageDone, result.Stage)
	}
	if !result.Degraded || result.Reason == "" {
		t.Errorf("expected degraded result with reason, got %+v", result)
	}
	if result.Written != 0 {
		t.Errorf("expected no records written, got %d", result.Written)
	}
}

func TestRunDegradesOnCompletionFailure(t *testing.T) {
	gen := &stubGenerator{err: context.DeadlineExceeded}
	store := newTestStore(t)
	orc := newOrchestrator(gen, store)

	result, err := orc.Run(context.Background(), payloadWith(userTurn("hello")))
	if err != nil {
		t.Fatalf("degraded run must not return an error, got %v", err)
	}
	if !result.Degraded {
		t.Error("expected degraded result")
	}
}

func TestRunRejectsMissingSession(t *testing.T) {
	orc := newOrchestrator(&stubGenerator{}, newTestStore(t))

	result, err := orc.Run(context.Background(), &types.Payload{})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if result.Stage != types.StageFailed {
		t.Errorf("expected stage %s, got %s", types.StageFailed, result.Stage)
	}
}

func TestRunRejectsMalformedTurn(t *testing.T) {
	orc := newOrchestrator(&stubGenerator{}, newTestStore(t))

	_, err := orc.Run(context.Background(), payloadWith(
		types.ConversationTurn{Role: "moderator", Text: "hi"},
	))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestRunRetriesTransientWriteFailures(t *testing.T) {
	gen := &stubGenerator{response: `{"facts": [{"key": "name", "value": "John Gro", "confidence": 0.9}]}`}
	store := &flakyStore{RecordStore: newTestStore(t), failures: 2}
	orc := newOrchestrator(gen, store)

	result, err := orc.Run(context.Background(), payloadWith(userTurn("I'm John Gro")))
	if err != nil {
		t.Fatalf("Run failed despite retries: %v", err)
	}
	if result.Written != 1 {
		t.Errorf("expected 1 written record, got %d", result.Written)
	}
	if store.calls != 3 {
		t.Errorf("expected 3 upsert attempts, got %d", store.calls)
	}
}

func TestRunFailsAfterRetryExhaustion(t *testing.T) {
	gen := &stubGenerator{response: `{"facts": [{"key": "name", "value": "John Gro", "confidence": 0.9}]}`}
	store := &flakyStore{RecordStore: newTestStore(t), failures: 10}
	orc := newOrchestrator(gen, store)

	result, err := orc.Run(context.Background(), payloadWith(userTurn("I'm John Gro")))
	if !errors.Is(err, storage.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	if result.Stage != types.StageFailed {
		t.Errorf("expected stage %s, got %s", types.StageFailed, result.Stage)
	}
	if store.calls != 3 {
		t.Errorf("expected 3 upsert attempts, got %d", store.calls)
	}
}

func TestRunEmptyTranscriptWritesNothing(t *testing.T) {
	orc := newOrchestrator(&stubGenerator{response: `{"facts": []}`}, newTestStore(t))

	result, err := orc.Run(context.Background(), &types.Payload{SessionID: "sess-empty"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stage != types.StageDone || result.Written != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}
