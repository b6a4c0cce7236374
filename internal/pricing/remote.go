package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"golang.org/x/time/rate"
)

// Remote is an Authority backed by a parts price REST service.
//
// GET {base}/parts/{piece_id}?color=...  returns a Listing or 404.
// GET {base}/parts?piece_id=...&category=... returns {"results": [Listing...]}.
type Remote struct {
	BaseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

// NewRemote creates a new remote pricing client. rps <= 0 disables rate limiting.
func NewRemote(baseURL, apiKey string, rps float64) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "key "+apiKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return &Remote{BaseURL: baseURL, client: client, limiter: limiter}
}

// Lookup fetches the listing for pieceID in color
func (r *Remote) Lookup(ctx context.Context, pieceID, color string) (*Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var listing Listing
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("color", color).
		SetResult(&listing).
		Get("/parts/" + url.PathEscape(pieceID))
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing service: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pricing service returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return &listing, nil
}

// Candidates fetches possible substitutes for part
func (r *Remote) Candidates(ctx context.Context, part models.Part) ([]Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result struct {
		Results []Listing `json:"results"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"piece_id": part.PieceID,
			"category": CategoryOf(part.PieceName),
		}).
		SetResult(&result).
		Get("/parts")
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing service: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("pricing service returned status %d: %s", resp.StatusCode(), resp.String())
	}

	self := catalogKey(part.PieceID, part.Color)
	out := make([]Listing, 0, len(result.Results))
	for _, l := range result.Results {
		if catalogKey(l.PieceID, l.Color) != self {
			out = append(out, l)
		}
	}
	return out, nil
}
