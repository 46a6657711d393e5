package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scrypster/recall/internal/pipeline"
	"github.com/scrypster/recall/pkg/types"
)

func samplePayload(sessionID string) *types.Payload {
	return &types.Payload{
		SessionID: sessionID,
		ActorID:   "actor-1",
		CurrentContext: []types.ConversationTurn{
			{Role: types.RoleUser, Text: "My name is John Gro"},
		},
	}
}

func TestPayloadWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	w := NewPayloadWriter(dir)

	path, err := w.Write(samplePayload("sess/abc:123"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.HasSuffix(path, payloadSuffix) {
		t.Errorf("expected %s suffix, got %s", payloadSuffix, path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 payload file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), "/") || strings.Contains(entries[0].Name(), ":") {
		t.Errorf("unsanitized filename %s", entries[0].Name())
	}
}

func TestPayloadWriterRejectsMissingSession(t *testing.T) {
	w := NewPayloadWriter(t.TempDir())
	if _, err := w.Write(&types.Payload{}); err == nil {
		t.Fatal("expected error for payload without session id")
	}
}

func TestPayloadWatcherDeliversAndAcks(t *testing.T) {
	dir := t.TempDir()
	received := make(chan *types.Payload, 1)

	watcher := NewPayloadWatcher(dir, func(ctx context.Context, p *types.Payload) error {
		received <- p
		return nil
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Give fsnotify a moment to register
	time.Sleep(50 * time.Millisecond)

	writer := NewPayloadWriter(dir)
	if _, err := writer.Write(samplePayload("sess-123")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	select {
	case p := <-received:
		if p.SessionID != "sess-123" {
			t.Errorf("expected sess-123, got %s", p.SessionID)
		}
		if len(p.CurrentContext) != 1 || p.CurrentContext[0].Text != "My name is John Gro" {
			t.Errorf("payload turns did not survive the round-trip: %+v", p.CurrentContext)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for payload")
	}

	// Acked deliveries are removed.
	time.Sleep(100 * time.Millisecond)
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty inbound dir after ack, found %d entries", len(entries))
	}
}

func TestPayloadWatcherDrainsExisting(t *testing.T) {
	dir := t.TempDir()

	// Write payloads BEFORE starting the watcher
	writer := NewPayloadWriter(dir)
	_, _ = writer.Write(samplePayload("sess-drain-1"))
	_, _ = writer.Write(samplePayload("sess-drain-2"))

	received := make(chan string, 10)
	watcher := NewPayloadWatcher(dir, func(ctx context.Context, p *types.Payload) error {
		received <- p.SessionID
		return nil
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Drain should have processed both files synchronously during Start
	time.Sleep(100 * time.Millisecond)

	if len(received) != 2 {
		t.Fatalf("expected 2 drained payloads, got %d", len(received))
	}
}

func TestPayloadWatcherKeepsFileOnTransientFailure(t *testing.T) {
	dir := t.TempDir()

	writer := NewPayloadWriter(dir)
	if _, err := writer.Write(samplePayload("sess-retry")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	watcher := NewPayloadWatcher(dir, func(ctx context.Context, p *types.Payload) error {
		return fmt.Errorf("store unavailable")
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), payloadSuffix) {
		t.Fatalf("expected payload file kept for redrive, found %v", entries)
	}
}

func TestPayloadWatcherSidelinesMalformedPayload(t *testing.T) {
	dir := t.TempDir()

	writer := NewPayloadWriter(dir)
	if _, err := writer.Write(samplePayload("sess-bad")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	watcher := NewPayloadWatcher(dir, func(ctx context.Context, p *types.Payload) error {
		return fmt.Errorf("%w: bad turn", pipeline.ErrMalformedPayload)
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".rejected") {
		t.Fatalf("expected sidelined .rejected file, found %v", entries)
	}
}

func TestPayloadWatcherSidelinesInvalidJSON(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "1-garbage"+payloadSuffix)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	called := false
	watcher := NewPayloadWatcher(dir, func(ctx context.Context, p *types.Payload) error {
		called = true
		return nil
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	if called {
		t.Error("handler must not run for invalid JSON")
	}
	if _, err := os.Stat(path + ".rejected"); err != nil {
		t.Errorf("expected sidelined file, stat failed: %v", err)
	}
}

func TestPayloadWatcherStartErrors(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "inbound")
	if err := os.WriteFile(blocked, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	watcher := NewPayloadWatcher(blocked, nil)
	if err := watcher.Start(); err == nil {
		watcher.Stop()
		t.Fatal("expected Start to fail when dir path is a file")
	}
}

func TestSanitizeID(t *testing.T) {
	got := sanitizeID("sess:general/abc")
	if got != "sess_general_abc" {
		t.Errorf("expected sess_general_abc, got %s", got)
	}
}
