// Package config provides configuration management for Recall.
// It loads settings from environment variables with the RECALL_ prefix
// and provides sensible defaults for all configuration options.
//
// Configuration is an explicit object handed to constructors; nothing in the
// pipeline reads the environment after startup.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Recall worker.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Inbound  InboundConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP server configuration for the ops surface.
type ServerConfig struct {
	Port int    // Server port (default: 6464)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains record store configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Connection string when StorageEngine is postgres
}

// LLMConfig contains completion capability configuration.
type LLMConfig struct {
	Provider        string        // LLM provider: ollama, openai, anthropic (default: ollama)
	OllamaURL       string        // Ollama API URL (default: http://localhost:11434)
	OllamaModel     string        // Ollama model for extraction (default: qwen2.5:7b)
	EmbeddingModel  string        // Embedding model; empty disables embedding enrichment
	OpenAIAPIKey    string        // OpenAI API key
	OpenAIModel     string        // OpenAI model name (default: gpt-4o-mini)
	AnthropicAPIKey string        // Anthropic API key
	AnthropicModel  string        // Anthropic model name (default: claude-3-5-haiku-20241022)
	RequestTimeout  time.Duration // Per-request completion timeout (default: 30s)
	MaxTokens       int           // Completion token budget (default: 300)
}

// PipelineConfig contains extraction pipeline tuning.
type PipelineConfig struct {
	MaxTranscriptTurns int    // Max turns kept in a transcript window (default: 40)
	Namespace          string // Namespace written on memory records (default: /)
	StoreRetryAttempts int    // Upsert attempts before the run fails (default: 3)
	SensitiveRulesPath string // Optional YAML file with extra sensitivity rules
}

// InboundConfig contains the payload-file delivery adapter settings.
type InboundConfig struct {
	PayloadDir string // Directory watched for inbound payload files (default: ./data/inbound)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // Bearer token required in production mode
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RECALL_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("RECALL_PORT", 6464),
			Host: getEnv("RECALL_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("RECALL_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("RECALL_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("RECALL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:        getEnv("RECALL_LLM_PROVIDER", "ollama"),
			OllamaURL:       getEnv("RECALL_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("RECALL_OLLAMA_MODEL", "qwen2.5:7b"),
			EmbeddingModel:  getEnv("RECALL_EMBEDDING_MODEL", ""),
			OpenAIAPIKey:    getEnv("RECALL_OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("RECALL_OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnv("RECALL_ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("RECALL_ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			RequestTimeout:  getEnvDuration("RECALL_LLM_TIMEOUT", 30*time.Second),
			MaxTokens:       getEnvInt("RECALL_LLM_MAX_TOKENS", 300),
		},
		Pipeline: PipelineConfig{
			MaxTranscriptTurns: getEnvInt("RECALL_MAX_TRANSCRIPT_TURNS", 40),
			Namespace:          getEnv("RECALL_NAMESPACE", "/"),
			StoreRetryAttempts: getEnvInt("RECALL_STORE_RETRY_ATTEMPTS", 3),
			SensitiveRulesPath: getEnv("RECALL_SENSITIVE_RULES_PATH", ""),
		},
		Inbound: InboundConfig{
			PayloadDir: getEnv("RECALL_PAYLOAD_DIR", "./data/inbound"),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("RECALL_SECURITY_MODE", "development"),
			APIToken:     getEnv("RECALL_API_TOKEN", ""),
		},
	}
	return cfg, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the environment variable exists but cannot be parsed as an
// integer, it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "45s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
