// Package validation checks an AI-proposed parts list against a pricing
// authority and annotates every line with a real price, availability and
// lookup link.
//
// Validation never fails as a whole. A part whose lookup errors is priced
// from its estimate, so the output always has one entry per input part, in
// input order.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"

	"github.com/lehigh-university-libraries/brickify/internal/metrics"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/lehigh-university-libraries/brickify/internal/pricing"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency bounds in-flight authority lookups
	DefaultConcurrency = 8
	// DefaultLowStockThreshold marks listings at or below this stock as Rare
	DefaultLowStockThreshold = 25
	// DefaultSearchURL is used for lines without an authority link
	DefaultSearchURL = "https://www.bricklink.com/v2/search.page?q=%s"
)

const (
	noteEstimate   = "No catalog match found; price is the AI estimate"
	noteUnverified = "Price could not be verified; price is the AI estimate"
)

// Options configures an Engine
type Options struct {
	Concurrency       int
	LowStockThreshold int
	Matcher           pricing.Matcher
	SearchURL         string
	Metrics           *metrics.Metrics
}

// Engine validates parts lists
type Engine struct {
	authority   pricing.Authority
	matcher     pricing.Matcher
	concurrency int
	lowStock    int
	searchURL   string
	metrics     *metrics.Metrics
}

// NewEngine creates a validation engine. A nil authority prices everything
// from estimates.
func NewEngine(authority pricing.Authority, opts Options) *Engine {
	if authority == nil {
		authority = pricing.Unpriced{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = DefaultLowStockThreshold
	}
	if opts.Matcher == nil {
		opts.Matcher = pricing.DefaultRules()
	}
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}

	return &Engine{
		authority:   authority,
		matcher:     opts.Matcher,
		concurrency: opts.Concurrency,
		lowStock:    opts.LowStockThreshold,
		searchURL:   opts.SearchURL,
		metrics:     opts.Metrics,
	}
}

// Validate returns one ValidatedPart per input part, in input order
func (e *Engine) Validate(ctx context.Context, parts []models.Part) []models.ValidatedPart {
	out := make([]models.ValidatedPart, len(parts))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, part := range parts {
		g.Go(func() error {
			out[i] = e.validatePart(ctx, part)
			e.metrics.RecordPart(string(out[i].Availability), out[i].IsAlternative)
			return nil
		})
	}

	_ = g.Wait()

	slog.Info("Validated parts list", "parts", len(parts), "real_total_cost", RealTotalCost(out))
	return out
}

func (e *Engine) validatePart(ctx context.Context, part models.Part) (vp models.ValidatedPart) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Pricing lookup panicked", "piece_id", part.PieceID, "panic", r)
			e.metrics.RecordLookupError()
			vp = e.estimated(part, noteUnverified)
		}
	}()

	listing, err := e.authority.Lookup(ctx, part.PieceID, part.Color)
	switch {
	case err == nil && listing != nil:
		if !listing.InStock() {
			if sub, ok := e.substitute(ctx, part); ok {
				return sub
			}
			vp = e.fromListing(part, *listing, models.AvailabilityRare)
			vp.Notes = "Out of stock at the supplier"
			return vp
		}
		if listing.Limited || (listing.Stock != nil && *listing.Stock <= e.lowStock) {
			vp = e.fromListing(part, *listing, models.AvailabilityRare)
			vp.Notes = rareNote(*listing)
			return vp
		}
		return e.fromListing(part, *listing, models.AvailabilityAvailable)

	case err == nil || errors.Is(err, pricing.ErrNotFound):
		if sub, ok := e.substitute(ctx, part); ok {
			return sub
		}
		return e.estimated(part, noteEstimate)

	default:
		slog.Warn("Pricing lookup failed", "piece_id", part.PieceID, "color", part.Color, "error", err)
		e.metrics.RecordLookupError()
		if sub, ok := e.substitute(ctx, part); ok {
			return sub
		}
		return e.estimated(part, noteUnverified)
	}
}

func (e *Engine) substitute(ctx context.Context, part models.Part) (models.ValidatedPart, bool) {
	candidates, err := e.authority.Candidates(ctx, part)
	if err != nil {
		slog.Warn("Substitute search failed", "piece_id", part.PieceID, "error", err)
		e.metrics.RecordLookupError()
		return models.ValidatedPart{}, false
	}

	sub, ok := e.matcher.Pick(part, candidates)
	if !ok {
		return models.ValidatedPart{}, false
	}

	vp := e.fromListing(part, sub, models.AvailabilityCheckAlternatives)
	vp.IsAlternative = true
	vp.SubstitutePieceID = sub.PieceID
	vp.Notes = fmt.Sprintf("Substituted %s (%s) for unavailable %s (%s); price is approximate",
		sub.PieceID, sub.Color, part.PieceID, part.Color)
	return vp, true
}

func (e *Engine) fromListing(part models.Part, l pricing.Listing, availability models.Availability) models.ValidatedPart {
	link := l.URL
	if link == "" {
		link = e.lookupURL(l.PieceID)
	}
	return models.ValidatedPart{
		Part:         part,
		RealPrice:    nonNegative(l.Price),
		Availability: availability,
		LookupURL:    link,
	}
}

func (e *Engine) estimated(part models.Part, note string) models.ValidatedPart {
	return models.ValidatedPart{
		Part:         part,
		RealPrice:    nonNegative(part.EstimatedPrice),
		Availability: models.AvailabilityCheckAlternatives,
		LookupURL:    e.lookupURL(part.PieceID),
		Notes:        note,
	}
}

func (e *Engine) lookupURL(pieceID string) string {
	return fmt.Sprintf(e.searchURL, url.QueryEscape(pieceID))
}

func rareNote(l pricing.Listing) string {
	if l.Stock != nil {
		return fmt.Sprintf("Limited availability: %d in stock", *l.Stock)
	}
	return "Limited availability"
}

// nonNegative maps negative and non-finite prices to 0
func nonNegative(price float64) float64 {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return price
}

// RealTotalCost sums realPrice * quantity over parts
func RealTotalCost(parts []models.ValidatedPart) float64 {
	total := 0.0
	for _, p := range parts {
		total += p.LineTotal()
	}
	return total
}

// Apply validates bp's parts list and returns a validated copy of bp
func (e *Engine) Apply(ctx context.Context, bp *models.Blueprint) *models.Blueprint {
	validated := e.Validate(ctx, bp.PartsList)
	return bp.WithValidation(validated, RealTotalCost(validated))
}
