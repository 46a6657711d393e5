package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 6464 {
		t.Errorf("expected default port 6464, got %d", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "sqlite" {
		t.Errorf("expected default storage engine sqlite, got %s", cfg.Storage.StorageEngine)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %v", cfg.LLM.RequestTimeout)
	}
	if cfg.Pipeline.MaxTranscriptTurns != 40 {
		t.Errorf("expected default transcript window 40, got %d", cfg.Pipeline.MaxTranscriptTurns)
	}
	if cfg.Pipeline.Namespace != "/" {
		t.Errorf("expected default namespace /, got %s", cfg.Pipeline.Namespace)
	}
	if cfg.Pipeline.StoreRetryAttempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Pipeline.StoreRetryAttempts)
	}
	if cfg.Inbound.PayloadDir != "./data/inbound" {
		t.Errorf("expected default payload dir ./data/inbound, got %s", cfg.Inbound.PayloadDir)
	}
	if cfg.Security.SecurityMode != "development" {
		t.Errorf("expected default security mode development, got %s", cfg.Security.SecurityMode)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("RECALL_PORT", "8080")
	t.Setenv("RECALL_STORAGE_ENGINE", "postgres")
	t.Setenv("RECALL_POSTGRES_DSN", "postgres://localhost/recall")
	t.Setenv("RECALL_LLM_PROVIDER", "anthropic")
	t.Setenv("RECALL_LLM_TIMEOUT", "45s")
	t.Setenv("RECALL_MAX_TRANSCRIPT_TURNS", "10")
	t.Setenv("RECALL_NAMESPACE", "/team-a")
	t.Setenv("RECALL_SECURITY_MODE", "production")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "postgres" {
		t.Errorf("expected storage engine postgres, got %s", cfg.Storage.StorageEngine)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/recall" {
		t.Errorf("unexpected DSN %s", cfg.Storage.PostgresDSN)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.RequestTimeout != 45*time.Second {
		t.Errorf("expected request timeout 45s, got %v", cfg.LLM.RequestTimeout)
	}
	if cfg.Pipeline.MaxTranscriptTurns != 10 {
		t.Errorf("expected transcript window 10, got %d", cfg.Pipeline.MaxTranscriptTurns)
	}
	if cfg.Pipeline.Namespace != "/team-a" {
		t.Errorf("expected namespace /team-a, got %s", cfg.Pipeline.Namespace)
	}
	if cfg.Security.SecurityMode != "production" {
		t.Errorf("expected security mode production, got %s", cfg.Security.SecurityMode)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RECALL_PORT", "not-a-number")
	t.Setenv("RECALL_LLM_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 6464 {
		t.Errorf("invalid port should fall back to 6464, got %d", cfg.Server.Port)
	}
	if cfg.LLM.RequestTimeout != 30*time.Second {
		t.Errorf("invalid timeout should fall back to 30s, got %v", cfg.LLM.RequestTimeout)
	}
}
