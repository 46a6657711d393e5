// Command recall-worker runs the fact-extraction pipeline: it watches the
// inbound payload directory, processes each delivered conversation window,
// and serves the record API and activity feed over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/extract"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/notify"
	"github.com/scrypster/recall/internal/pipeline"
	"github.com/scrypster/recall/internal/sensitive"
	"github.com/scrypster/recall/internal/server"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the record store
	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize the completion capability
	generator, err := llm.NewTextGenerator(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	log.Printf("Using %s provider with model %s", cfg.LLM.Provider, generator.GetModel())

	// Sensitivity filter, optionally extended from a rules file
	filter, err := newFilter(cfg)
	if err != nil {
		log.Fatalf("Failed to load sensitivity rules: %v", err)
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Assemble the pipeline
	pipeCfg := pipeline.Config{
		MaxTranscriptTurns: cfg.Pipeline.MaxTranscriptTurns,
		Namespace:          cfg.Pipeline.Namespace,
		StoreRetryAttempts: cfg.Pipeline.StoreRetryAttempts,
	}
	orc := pipeline.New(pipeCfg, extract.NewExtractor(generator), filter, store)

	// Optional embedding enrichment (requires an embedding-capable provider
	// and an embedding-capable store)
	if embedder, err := llm.NewEmbeddingGenerator(cfg.LLM); err != nil {
		log.Printf("Warning: embedding enrichment disabled: %v", err)
	} else if embedder != nil {
		orc.WithEmbedding(embedder)
		log.Printf("Embedding enrichment enabled with model %s", embedder.GetModel())
	}

	// Start the ops HTTP surface and wire its activity feed into the pipeline
	addr, wsHub := server.Start(ctx, cfg, store, orc)
	orc.WithBroadcaster(wsHub)
	log.Printf("Recall API running at http://%s", addr)

	// Watch the inbound directory for payload deliveries
	watcher := notify.NewPayloadWatcher(cfg.Inbound.PayloadDir, func(ctx context.Context, p *types.Payload) error {
		_, err := orc.Run(ctx, p)
		return err
	})
	if err := watcher.Start(); err != nil {
		log.Fatalf("Failed to start payload watcher: %v", err)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	watcher.Stop()
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// newStore selects the record store implementation from config.
func newStore(cfg *config.Config) (storage.RecordStore, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		return postgres.NewRecordStore(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
			return nil, err
		}
		return sqlite.NewRecordStore(cfg.Storage.DataPath + "/recall.db")
	}
}

// newFilter builds the sensitivity filter, extended from the configured
// rules file when one is set.
func newFilter(cfg *config.Config) (*sensitive.Filter, error) {
	if cfg.Pipeline.SensitiveRulesPath != "" {
		return sensitive.NewFilterFromFile(cfg.Pipeline.SensitiveRulesPath)
	}
	return sensitive.NewFilter(), nil
}
