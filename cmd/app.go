package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/blueprint"
	"github.com/lehigh-university-libraries/brickify/internal/config"
	"github.com/lehigh-university-libraries/brickify/internal/gemini"
	"github.com/lehigh-university-libraries/brickify/internal/images"
	"github.com/lehigh-university-libraries/brickify/internal/metrics"
	"github.com/lehigh-university-libraries/brickify/internal/ollama"
	"github.com/lehigh-university-libraries/brickify/internal/openai"
	"github.com/lehigh-university-libraries/brickify/internal/pricing"
	"github.com/lehigh-university-libraries/brickify/internal/providers"
	"github.com/lehigh-university-libraries/brickify/internal/session"
	"github.com/lehigh-university-libraries/brickify/internal/validation"
)

// app holds the collaborators shared by serve and convert
type app struct {
	cfg     *config.Config
	deps    session.Deps
	metrics *metrics.Metrics
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close client", "err", err)
		}
	}
}

// loadConfig reads and validates configuration from the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	generator, imageModel, textModel, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := generator.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	partsGenerator, partsModel, err := newPartsGenerator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if partsGenerator != nil {
		textModel = partsModel
		if c, ok := partsGenerator.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	authority, err := newAuthority(cfg.Pricing)
	if err != nil {
		a.Close()
		return nil, err
	}

	matcher, err := newMatcher(cfg.Pricing.SubstitutionRules)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.deps = session.Deps{
		Pipeline: blueprint.New(generator, blueprint.Options{
			ImageModel:     imageModel,
			TextModel:      textModel,
			Temperature:    cfg.Temperature,
			Metrics:        a.metrics,
			PartsGenerator: partsGenerator,
		}),
		Validator: validation.NewEngine(authority, validation.Options{
			Concurrency:       cfg.Pricing.Concurrency,
			LowStockThreshold: cfg.Pricing.LowStockThreshold,
			Matcher:           matcher,
			Metrics:           a.metrics,
		}),
		Fetcher: images.NewFetcher(int(cfg.Server.MaxUploadBytes)),
		Metrics: a.metrics,
	}

	slog.Info("Brickify configured",
		"provider", cfg.Provider,
		"image_model", imageModel,
		"text_model", textModel,
		"parts_provider", cfg.PartsProvider,
		"pricing_source", cfg.Pricing.Source)

	return a, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (providers.Generator, string, string, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := gemini.New(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return g, cfg.Gemini.ImageModel, cfg.Gemini.TextModel, nil
	case config.ProviderOpenAI:
		o, err := openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return o, cfg.OpenAI.ImageModel, cfg.OpenAI.TextModel, nil
	default:
		return nil, "", "", fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// newPartsGenerator returns a separate parts extraction generator when PARTS_PROVIDER
// names a provider other than the main one, or nil.
func newPartsGenerator(ctx context.Context, cfg *config.Config) (providers.Generator, string, error) {
	if cfg.PartsProvider == "" || cfg.PartsProvider == cfg.Provider {
		return nil, "", nil
	}

	switch cfg.PartsProvider {
	case config.ProviderOllama:
		return ollama.New(cfg.Ollama.URL), cfg.Ollama.Model, nil
	case config.ProviderGemini, config.ProviderOpenAI:
		partsCfg := *cfg
		partsCfg.Provider = cfg.PartsProvider
		g, _, textModel, err := newGenerator(ctx, &partsCfg)
		if err != nil {
			return nil, "", err
		}
		return g, textModel, nil
	default:
		return nil, "", fmt.Errorf("unsupported parts provider: %s", cfg.PartsProvider)
	}
}

func newAuthority(cfg config.PricingConfig) (pricing.Authority, error) {
	switch cfg.Source {
	case config.PricingCatalog:
		catalog, err := pricing.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load parts catalog: %w", err)
		}
		return catalog, nil
	case config.PricingRemote:
		return pricing.NewRemote(cfg.URL, cfg.APIKey, cfg.RequestsPerSecond), nil
	case config.PricingNone:
		slog.Warn("No pricing source configured; every part will use its AI estimate")
		return pricing.Unpriced{}, nil
	default:
		return nil, fmt.Errorf("unsupported pricing source: %s", cfg.Source)
	}
}

func newMatcher(path string) (pricing.Matcher, error) {
	if path == "" {
		return pricing.DefaultRules(), nil
	}
	rules, err := pricing.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return l, nil
}

func newLogHandler(cfg config.LogConfig, w io.Writer) (slog.Handler, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (supported: text, json)", cfg.Format)
	}
}

func configureLogging(cfg config.LogConfig) {
	handler, err := newLogHandler(cfg, os.Stderr)
	if err != nil {
		slog.Warn("Falling back to default logger", "err", err)
		return
	}
	slog.SetDefault(slog.New(handler))
}
