package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadFresh(t *testing.T, configFile string) (*Config, error) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	return Load(configFile)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFresh(t, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Default model = %q", cfg.AI.Gemini.Model)
	}
	if cfg.Pipeline.MaxAttempts != 2 || cfg.Pipeline.IdeasPerAttempt != 5 {
		t.Errorf("Default attempt loop = %d/%d", cfg.Pipeline.MaxAttempts, cfg.Pipeline.IdeasPerAttempt)
	}
	if cfg.Pipeline.PoolSize != 16 {
		t.Errorf("Default pool size = %d", cfg.Pipeline.PoolSize)
	}
	if cfg.Cache.ConceptMaxAge != "24h" {
		t.Errorf("Default concept max age = %q", cfg.Cache.ConceptMaxAge)
	}
	if !cfg.Signals.HackerNews {
		t.Error("Expected Hacker News source enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  max_attempts: 3
  pool_size: 8
cache:
  concept_max_age: 12h
`)

	cfg, err := loadFresh(t, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pipeline.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, expected 3", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.PoolSize != 8 {
		t.Errorf("PoolSize = %d, expected 8", cfg.Pipeline.PoolSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Pipeline.IdeasPerAttempt != 5 {
		t.Errorf("IdeasPerAttempt = %d, expected default 5", cfg.Pipeline.IdeasPerAttempt)
	}
	if cfg.ConceptMaxAge() != 12*time.Hour {
		t.Errorf("ConceptMaxAge = %v, expected 12h", cfg.ConceptMaxAge())
	}
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "zero attempts",
			content: `
pipeline:
  max_attempts: 0
`,
		},
		{
			name: "min matches above max",
			content: `
pipeline:
  min_matched_concepts: 6
  max_matched_concepts: 5
`,
		},
		{
			name: "bad cache duration",
			content: `
cache:
  concept_max_age: yesterday
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := loadFresh(t, path); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestEnvironmentOverridesAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")

	cfg, err := loadFresh(t, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Gemini.APIKey != "test-key-123" {
		t.Errorf("APIKey = %q, expected env value", cfg.AI.Gemini.APIKey)
	}
}

func TestLoadIsCached(t *testing.T) {
	first, err := loadFresh(t, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first != second {
		t.Error("Expected repeated Load to return the cached config")
	}
}

func TestDurationHelpersFallBack(t *testing.T) {
	cfg := &Config{}
	if cfg.ConceptMaxAge() != 24*time.Hour {
		t.Errorf("ConceptMaxAge fallback = %v", cfg.ConceptMaxAge())
	}
	if cfg.GeminiTimeout() != 60*time.Second {
		t.Errorf("GeminiTimeout fallback = %v", cfg.GeminiTimeout())
	}
}
