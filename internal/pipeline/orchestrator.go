// Package pipeline wires transcript building, fact extraction, sensitive
// filtering, and idempotent record storage into one request → records flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/scrypster/recall/internal/extract"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/records"
	"github.com/scrypster/recall/internal/sensitive"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/transcript"
	"github.com/scrypster/recall/pkg/types"
)

// ErrMalformedPayload indicates an inbound payload that cannot be processed
// (missing session, malformed turns). Fatal to the run and surfaced so the
// delivery mechanism can redrive.
var ErrMalformedPayload = errors.New("malformed payload")

// Config tunes one orchestrator instance.
type Config struct {
	// MaxTranscriptTurns bounds the transcript window (oldest dropped first).
	MaxTranscriptTurns int

	// Namespace stamped on every memory record.
	Namespace string

	// StoreRetryAttempts is the number of upsert attempts before the run
	// fails. Writes are idempotent by identifier, so retrying the whole
	// batch is safe.
	StoreRetryAttempts int
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		MaxTranscriptTurns: 40,
		Namespace:          "/",
		StoreRetryAttempts: 3,
	}
}

// Broadcaster receives per-run outcome events (the websocket activity hub
// satisfies this). Optional.
type Broadcaster interface {
	Broadcast(message interface{})
}

// Result is the outcome of one pipeline run.
type Result struct {
	SessionID string        `json:"session_id"`
	Stage     string        `json:"stage"`
	Extracted int           `json:"extracted"`
	Dropped   int           `json:"dropped"`
	Written   int           `json:"written"`
	Degraded  bool          `json:"degraded"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Orchestrator executes the linear per-payload state machine:
// Received → TranscriptBuilt → FactsExtracted → FactsFiltered →
// RecordsWritten → Done, with Failed reachable from any step.
//
// One invocation processes one payload to completion; invocations for
// different sessions are independent and may run concurrently — the
// orchestrator holds no per-run mutable state.
type Orchestrator struct {
	cfg         Config
	builder     *transcript.Builder
	extractor   *extract.Extractor
	filter      *sensitive.Filter
	keyer       *records.Keyer
	store       storage.RecordStore
	embedder    llm.EmbeddingGenerator
	broadcaster Broadcaster
	now         func() time.Time
}

// New creates an orchestrator from its collaborators. The transcript builder
// and record keyer are derived from cfg.
func New(cfg Config, extractor *extract.Extractor, filter *sensitive.Filter, store storage.RecordStore) *Orchestrator {
	if cfg.StoreRetryAttempts < 1 {
		cfg.StoreRetryAttempts = 1
	}
	return &Orchestrator{
		cfg:       cfg,
		builder:   transcript.NewBuilder(cfg.MaxTranscriptTurns),
		extractor: extractor,
		filter:    filter,
		keyer:     records.NewKeyer(cfg.Namespace),
		store:     store,
		now:       time.Now,
	}
}

// WithEmbedding enables best-effort embedding enrichment on written records.
// Takes effect only when the store also implements storage.EmbeddingSink.
func (o *Orchestrator) WithEmbedding(gen llm.EmbeddingGenerator) *Orchestrator {
	o.embedder = gen
	return o
}

// WithBroadcaster wires an activity feed for run outcomes.
func (o *Orchestrator) WithBroadcaster(b Broadcaster) *Orchestrator {
	o.broadcaster = b
	return o
}

// Run processes one inbound payload to completion.
//
// Extraction-quality failures (unparseable model output, completion timeout)
// do not fail the run: the pipeline proceeds with zero facts and finishes
// Done with written=0, flagged Degraded with the cause. Payload corruption
// and store unavailability after retries fail the run with a non-nil error
// so the delivery mechanism can redrive.
func (o *Orchestrator) Run(ctx context.Context, payload *types.Payload) (*Result, error) {
	start := o.now()
	result := &Result{Stage: types.StageReceived}
	defer func() {
		result.Duration = o.now().Sub(start)
		if o.broadcaster != nil {
			o.broadcaster.Broadcast(result)
		}
	}()

	if payload == nil || payload.SessionID == "" {
		result.Stage = types.StageFailed
		return result, fmt.Errorf("%w: session id is required", ErrMalformedPayload)
	}
	result.SessionID = payload.SessionID

	text, err := o.builder.Build(payload.HistoricalContext, payload.CurrentContext)
	if err != nil {
		result.Stage = types.StageFailed
		return result, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	result.Stage = types.StageTranscriptBuilt

	var facts []types.CandidateFact
	if text == "" {
		log.Printf("pipeline: session %s delivered an empty transcript, nothing to extract", payload.SessionID)
	} else {
		extraction, err := o.extractor.Extract(ctx, text)
		if err != nil {
			// Degrade, don't fail: extraction quality issues must not block
			// the rest of the conversation's lifecycle.
			result.Degraded = true
			result.Reason = err.Error()
			log.Printf("pipeline: session %s extraction degraded to zero facts: %v", payload.SessionID, err)
		} else {
			facts = extraction.Facts
		}
	}
	result.Stage = types.StageFactsExtracted
	result.Extracted = len(facts)

	kept, dropped := o.filter.Apply(facts)
	result.Stage = types.StageFactsFiltered
	result.Dropped = dropped
	if dropped > 0 {
		log.Printf("pipeline: session %s dropped %d sensitive fact(s)", payload.SessionID, dropped)
	}

	batch := o.keyer.Records(payload.SessionID, kept, o.now().UTC())

	written, err := o.upsertWithRetry(ctx, batch)
	if err != nil {
		result.Stage = types.StageFailed
		return result, err
	}
	result.Stage = types.StageRecordsWritten
	result.Written = written

	o.storeEmbeddings(ctx, batch)

	result.Stage = types.StageDone
	log.Printf("pipeline: session %s done (extracted=%d dropped=%d written=%d degraded=%t)",
		payload.SessionID, result.Extracted, result.Dropped, result.Written, result.Degraded)
	return result, nil
}

// upsertWithRetry writes the batch with capped exponential backoff. The
// whole batch is retried together; identifiers make the retry idempotent.
func (o *Orchestrator) upsertWithRetry(ctx context.Context, batch []types.MemoryRecord) (int, error) {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= o.cfg.StoreRetryAttempts; attempt++ {
		written, err := o.store.UpsertBatch(ctx, batch)
		if err == nil {
			return written, nil
		}
		lastErr = err

		// Invalid input won't get better with retries.
		if errors.Is(err, storage.ErrInvalidInput) {
			break
		}

		if attempt < o.cfg.StoreRetryAttempts {
			log.Printf("pipeline: upsert attempt %d/%d failed, retrying in %v: %v",
				attempt, o.cfg.StoreRetryAttempts, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
			backoff *= 2
			if backoff > time.Second {
				backoff = time.Second
			}
		}
	}

	return 0, fmt.Errorf("upsert failed after %d attempt(s): %w", o.cfg.StoreRetryAttempts, lastErr)
}

// storeEmbeddings generates and stores an embedding per written record.
// Best-effort: failures are logged, never fatal, and the feature is silently
// off unless both an embedder and an embedding-capable store are configured.
func (o *Orchestrator) storeEmbeddings(ctx context.Context, batch []types.MemoryRecord) {
	if o.embedder == nil || len(batch) == 0 {
		return
	}
	sink, ok := o.store.(storage.EmbeddingSink)
	if !ok {
		return
	}

	for _, rec := range batch {
		vec, err := o.embedder.Embed(ctx, rec.Content)
		if err != nil {
			log.Printf("pipeline: WARNING - failed to embed record %s: %v", rec.Identifier, err)
			continue
		}
		if err := sink.StoreEmbedding(ctx, rec.Identifier, vec, o.embedder.GetModel()); err != nil {
			log.Printf("pipeline: WARNING - failed to store embedding for %s: %v", rec.Identifier, err)
		}
	}
}
