package llm

import "context"

// TextGenerator is the interface for LLM text completion.
// The fact-extraction prompt uses single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
// Returns float32 slice; the postgres store converts to pgvector format.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}
