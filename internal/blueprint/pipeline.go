// Package blueprint turns a photo into a LEGO-ized image and parts list
// using two sequential generative calls.
//
// Stage A synthesizes the brick-built image and is the only fatal stage.
// Stage B reads that image back and asks for a JSON parts breakdown; any
// problem there degrades to a canned fallback blueprint that still carries
// the Stage A image.
package blueprint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/brickify/internal/imaging"
	"github.com/lehigh-university-libraries/brickify/internal/metrics"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/lehigh-university-libraries/brickify/internal/providers"
)

// ErrNoImage is returned when Stage A produces no image
var ErrNoImage = errors.New("no image was generated")

// Progress messages
const (
	ProgressGeneratingImage = "Generating brick-built image..."
	ProgressAnalyzingParts  = "Analyzing image for parts..."
	ProgressFinalizing      = "Finalizing blueprint..."
)

// ProgressFunc receives human-readable progress notifications
type ProgressFunc func(message string)

// Options configures a Pipeline
type Options struct {
	ImageModel  string
	TextModel   string
	Temperature float64
	Metrics     *metrics.Metrics
	// PartsGenerator answers Stage B instead of the main generator when set
	PartsGenerator providers.Generator
}

// Pipeline runs the two-stage generation
type Pipeline struct {
	generator providers.Generator
	opts      Options
	now       func() time.Time
}

// New creates a pipeline around a generator
func New(generator providers.Generator, opts Options) *Pipeline {
	return &Pipeline{
		generator: generator,
		opts:      opts,
		now:       time.Now,
	}
}

// Generate runs Stage A and Stage B for image at the requested size. It is
// used both for the first conversion and for deriving other sizes from the
// retained original.
func (p *Pipeline) Generate(ctx context.Context, image imaging.Image, size models.Size, progress ProgressFunc) (*models.Blueprint, error) {
	if progress == nil {
		progress = func(string) {}
	}
	if len(image.Data) == 0 {
		p.opts.Metrics.RecordPipeline(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to generate blueprint: %w", imaging.ErrNotImage)
	}

	slog.Info("Starting blueprint generation", "size", size, "mime_type", image.MIMEType, "bytes", len(image.Data))

	progress(ProgressGeneratingImage)
	legoImage, err := p.generateImage(ctx, image, size)
	if err != nil {
		p.opts.Metrics.RecordPipeline(metrics.OutcomeFailed)
		return nil, err
	}
	legoImageData := legoImage.DataURI()

	progress(ProgressAnalyzingParts)
	bp, err := p.extractParts(ctx, legoImage, size)
	if err != nil {
		slog.Warn("Parts extraction failed, using fallback blueprint", "size", size, "error", err)
		bp = fallbackBlueprint(size)
	}

	progress(ProgressFinalizing)
	bp.LegoImageData = legoImageData
	bp.Size = size
	bp.CreatedAt = p.now()

	outcome := metrics.OutcomeSuccess
	if bp.IsFallback {
		outcome = metrics.OutcomeFallback
	}
	p.opts.Metrics.RecordPipeline(outcome)

	slog.Info("Generated blueprint", "title", bp.Title, "size", size, "parts", len(bp.PartsList), "fallback", bp.IsFallback)
	return bp, nil
}

func (p *Pipeline) generateImage(ctx context.Context, image imaging.Image, size models.Size) (imaging.Image, error) {
	start := time.Now()
	resp, err := p.generator.Generate(ctx, providers.Request{
		Model:       p.opts.ImageModel,
		Temperature: p.opts.Temperature,
		Prompt:      buildImagePrompt(size),
		Images:      []providers.Image{{MIMEType: image.MIMEType, Data: image.Data}},
		WantImage:   true,
	})
	p.opts.Metrics.RecordStage("image", time.Since(start))
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to generate LEGO image: %w", err)
	}

	img, ok := resp.FirstImage()
	if !ok {
		return imaging.Image{}, ErrNoImage
	}

	if img.MIMEType == "" {
		detected, err := imaging.Detect(img.Data)
		if err != nil {
			return imaging.Image{}, fmt.Errorf("failed to encode generated image: %w", err)
		}
		return detected, nil
	}
	return imaging.Image{MIMEType: img.MIMEType, Data: img.Data}, nil
}

func (p *Pipeline) extractParts(ctx context.Context, legoImage imaging.Image, size models.Size) (*models.Blueprint, error) {
	generator := p.generator
	if p.opts.PartsGenerator != nil {
		generator = p.opts.PartsGenerator
	}

	start := time.Now()
	resp, err := generator.Generate(ctx, providers.Request{
		Model:       p.opts.TextModel,
		Temperature: p.opts.Temperature,
		Prompt:      buildPartsPrompt(size),
		Images:      []providers.Image{{MIMEType: legoImage.MIMEType, Data: legoImage.Data}},
		JSON:        true,
	})
	p.opts.Metrics.RecordStage("parts", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to extract parts: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("parts response has no text")
	}

	return parseBlueprint(text, size)
}
