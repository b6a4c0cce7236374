package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Provider names accepted by BRICKIFY_PROVIDER
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Pricing sources accepted by PRICING_SOURCE
const (
	PricingCatalog = "catalog"
	PricingRemote  = "remote"
	PricingNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	Provider    string  `envconfig:"BRICKIFY_PROVIDER" default:"gemini"`
	Temperature float64 `envconfig:"GENERATION_TEMPERATURE" default:"0.4"`
	// PartsProvider optionally moves parts extraction to another provider
	PartsProvider string `envconfig:"PARTS_PROVIDER"`

	Gemini  GeminiConfig
	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	Pricing PricingConfig
	Server  ServerConfig
	Logging LogConfig
}

// GeminiConfig holds Google Gemini credentials and model names.
type GeminiConfig struct {
	APIKey     string `envconfig:"GEMINI_API_KEY"`
	ImageModel string `envconfig:"GEMINI_IMAGE_MODEL" default:"gemini-2.5-flash-image-preview"`
	TextModel  string `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-2.5-flash"`
}

// OpenAIConfig holds OpenAI credentials and model names.
type OpenAIConfig struct {
	APIKey     string `envconfig:"OPENAI_API_KEY"`
	BaseURL    string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	ImageModel string `envconfig:"OPENAI_IMAGE_MODEL" default:"gpt-image-1"`
	TextModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
}

// OllamaConfig holds the local Ollama server used for parts extraction.
type OllamaConfig struct {
	URL   string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	Model string `envconfig:"OLLAMA_MODEL" default:"llava"`
}

// PricingConfig selects and tunes the parts pricing authority.
type PricingConfig struct {
	Source            string  `envconfig:"PRICING_SOURCE" default:"catalog"`
	CatalogPath       string  `envconfig:"PRICING_CATALOG_PATH" default:"catalog.yaml"`
	URL               string  `envconfig:"PRICING_URL"`
	APIKey            string  `envconfig:"PRICING_API_KEY"`
	RequestsPerSecond float64 `envconfig:"PRICING_RPS" default:"10"`
	Concurrency       int     `envconfig:"PRICING_CONCURRENCY" default:"8"`
	LowStockThreshold int     `envconfig:"PRICING_LOW_STOCK" default:"25"`
	SubstitutionRules string  `envconfig:"SUBSTITUTION_RULES"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8888"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"` // 0 keeps sessions until deleted
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.PartsProvider = strings.ToLower(cfg.PartsProvider)
	cfg.Pricing.Source = strings.ToLower(cfg.Pricing.Source)
	return &cfg, nil
}

// Validate reports every missing or inconsistent field at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY environment variable not set"))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY environment variable not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %s", c.Provider))
	}

	switch c.PartsProvider {
	case "", c.Provider:
	case ProviderOllama:
		if c.Ollama.URL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required when PARTS_PROVIDER=ollama"))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY environment variable not set"))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY environment variable not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported parts provider: %s", c.PartsProvider))
	}

	switch c.Pricing.Source {
	case PricingCatalog:
		if c.Pricing.CatalogPath == "" {
			errs = append(errs, errors.New("PRICING_CATALOG_PATH is required when PRICING_SOURCE=catalog"))
		}
	case PricingRemote:
		if c.Pricing.URL == "" {
			errs = append(errs, errors.New("PRICING_URL is required when PRICING_SOURCE=remote"))
		}
	case PricingNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported pricing source: %s", c.Pricing.Source))
	}

	if c.Pricing.Concurrency < 1 {
		errs = append(errs, errors.New("PRICING_CONCURRENCY must be at least 1"))
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL must not be negative"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, errors.New("GENERATION_TEMPERATURE must be between 0 and 2"))
	}

	return errors.Join(errs...)
}
