// Package notify delivers conversation payloads between processes through a
// shared inbound directory. Delivery is at-least-once: a payload file stays
// on disk until its pipeline run succeeds, so a crashed or failed run is
// redriven on the next start.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// payloadSuffix marks files the watcher will pick up. Writers stage under a
// temporary name and rename, so the watcher never sees a partial file.
const payloadSuffix = ".payload.json"

// PayloadWriter drops payload files into an inbound directory.
type PayloadWriter struct {
	dir string
}

// NewPayloadWriter creates a writer targeting the given inbound directory.
func NewPayloadWriter(dir string) *PayloadWriter {
	return &PayloadWriter{dir: dir}
}

// Write persists one payload as a file the watcher will consume. Returns the
// final file path. Safe to call concurrently.
func (w *PayloadWriter) Write(payload *types.Payload) (string, error) {
	if payload == nil || payload.SessionID == "" {
		return "", fmt.Errorf("notify: payload session id is required")
	}
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return "", fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("notify: marshal payload: %w", err)
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), sanitizeID(payload.SessionID), payloadSuffix)
	final := filepath.Join(w.dir, name)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("notify: write payload: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("notify: publish payload: %w", err)
	}
	return final, nil
}

// sanitizeID replaces characters unsafe for filenames.
func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '/' || id[i] == ':' {
			out[i] = '_'
		} else {
			out[i] = id[i]
		}
	}
	return string(out)
}
