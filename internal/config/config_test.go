package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BRICKIFY_PROVIDER", "GEMINI")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Provider != ProviderGemini {
		t.Errorf("Expected provider to be lowercased, got %s", cfg.Provider)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("Expected API key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Server.Port != "8888" {
		t.Errorf("Expected default port 8888, got %s", cfg.Server.Port)
	}
	if cfg.Pricing.Concurrency != 8 {
		t.Errorf("Expected default concurrency 8, got %d", cfg.Pricing.Concurrency)
	}
	if cfg.Pricing.LowStockThreshold != 25 {
		t.Errorf("Expected default low stock threshold 25, got %d", cfg.Pricing.LowStockThreshold)
	}
	if cfg.Server.SessionTTL != 2*time.Hour {
		t.Errorf("Expected default session TTL 2h, got %v", cfg.Server.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Provider:    ProviderGemini,
			Temperature: 0.4,
			Gemini:      GeminiConfig{APIKey: "key"},
			Pricing:     PricingConfig{Source: PricingCatalog, CatalogPath: "catalog.yaml", Concurrency: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing gemini key",
			mutate:  func(c *Config) { c.Gemini.APIKey = "" },
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "missing openai key",
			mutate:  func(c *Config) { c.Provider = ProviderOpenAI },
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "ollama" },
			wantErr: "unsupported provider",
		},
		{
			name: "ollama parts provider",
			mutate: func(c *Config) {
				c.PartsProvider = ProviderOllama
				c.Ollama = OllamaConfig{URL: "http://localhost:11434", Model: "llava"}
			},
		},
		{
			name:    "ollama parts provider without url",
			mutate:  func(c *Config) { c.PartsProvider = ProviderOllama },
			wantErr: "OLLAMA_URL",
		},
		{
			name: "openai parts provider without key",
			mutate: func(c *Config) {
				c.PartsProvider = ProviderOpenAI
			},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown parts provider",
			mutate:  func(c *Config) { c.PartsProvider = "abacus" },
			wantErr: "unsupported parts provider",
		},
		{
			name:    "remote pricing without url",
			mutate:  func(c *Config) { c.Pricing.Source = PricingRemote },
			wantErr: "PRICING_URL",
		},
		{
			name:   "no pricing needs nothing",
			mutate: func(c *Config) { c.Pricing = PricingConfig{Source: PricingNone, Concurrency: 1} },
		},
		{
			name:    "negative session ttl",
			mutate:  func(c *Config) { c.Server.SessionTTL = -time.Minute },
			wantErr: "SESSION_TTL",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Pricing.Concurrency = 0 },
			wantErr: "PRICING_CONCURRENCY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
