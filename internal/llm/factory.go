package llm

import (
	"fmt"

	"github.com/scrypster/recall/internal/config"
)

// NewTextGenerator creates the appropriate TextGenerator for the configured
// provider.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.OpenAIModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.RequestTimeout,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.RequestTimeout,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.RequestTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the appropriate EmbeddingGenerator.
// Returns (nil, nil) when no embedding model is configured or the provider
// does not support embeddings (Anthropic); callers treat nil as "embedding
// enrichment disabled".
func NewEmbeddingGenerator(cfg config.LLMConfig) (EmbeddingGenerator, error) {
	if cfg.EmbeddingModel == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.RequestTimeout,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.RequestTimeout,
		}), nil
	default:
		return nil, nil
	}
}
