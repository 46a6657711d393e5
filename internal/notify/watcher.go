package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/scrypster/recall/internal/pipeline"
	"github.com/scrypster/recall/pkg/types"
)

// Handler processes one delivered payload. A nil return acknowledges the
// delivery; pipeline.ErrMalformedPayload sidelines the file; any other error
// leaves the file in place for redrive.
type Handler func(ctx context.Context, payload *types.Payload) error

// PayloadWatcher watches the inbound directory and feeds payload files to a
// handler. Files are removed only after the handler succeeds.
type PayloadWatcher struct {
	dir     string
	handler Handler
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewPayloadWatcher creates a watcher for the given inbound directory.
func NewPayloadWatcher(dir string, handler Handler) *PayloadWatcher {
	return &PayloadWatcher{
		dir:     dir,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start begins watching. Payload files already present — deliveries that
// arrived while the process was down, or runs that previously failed — are
// drained first, then new arrivals are handled as they land. Call Stop() to
// clean up.
func (pw *PayloadWatcher) Start() error {
	if err := os.MkdirAll(pw.dir, 0o700); err != nil {
		return err
	}

	pw.drainExisting()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(pw.dir); err != nil {
		_ = w.Close()
		return err
	}
	pw.watcher = w

	go pw.loop()
	log.Printf("notify: watching %s for inbound payloads", pw.dir)
	return nil
}

// Stop shuts down the watcher.
func (pw *PayloadWatcher) Stop() {
	if pw.watcher != nil {
		_ = pw.watcher.Close()
	}
	<-pw.done
}

func (pw *PayloadWatcher) loop() {
	defer close(pw.done)
	for {
		select {
		case evt, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&fsnotify.Create != 0 && strings.HasSuffix(evt.Name, payloadSuffix) {
				pw.processFile(evt.Name)
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

func (pw *PayloadWatcher) drainExisting() {
	entries, err := os.ReadDir(pw.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), payloadSuffix) {
			pw.processFile(filepath.Join(pw.dir, entry.Name()))
		}
	}
}

func (pw *PayloadWatcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // file already consumed by another process
	}

	var payload types.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("notify: invalid payload file %s: %v", filepath.Base(path), err)
		pw.sideline(path)
		return
	}

	if pw.handler == nil {
		return
	}

	err = pw.handler(context.Background(), &payload)
	switch {
	case err == nil:
		_ = os.Remove(path)
	case errors.Is(err, pipeline.ErrMalformedPayload):
		log.Printf("notify: rejecting payload file %s: %v", filepath.Base(path), err)
		pw.sideline(path)
	default:
		// Transient failure: keep the file so the next start redrives it.
		log.Printf("notify: payload file %s kept for redrive: %v", filepath.Base(path), err)
	}
}

// sideline renames an unprocessable file out of the watch suffix so it stops
// matching, preserving it for inspection.
func (pw *PayloadWatcher) sideline(path string) {
	if err := os.Rename(path, path+".rejected"); err != nil {
		log.Printf("notify: failed to sideline %s: %v", filepath.Base(path), err)
	}
}
