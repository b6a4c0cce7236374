package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxBytes caps downloaded images at 10MB
const DefaultMaxBytes = 10 * 1024 * 1024

// Fetcher retrieves source images by URL, e.g. the bundled demo photos
type Fetcher struct {
	client   *resty.Client
	maxBytes int
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(30*time.Second).
			SetRetryCount(0).
			SetResponseBodyLimit(maxBytes).
			SetHeader("User-Agent", "brickify/1.0"),
		maxBytes: maxBytes,
	}
}

// Fetch downloads the image at rawURL and returns its bytes
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image URL: %q", rawURL)
	}

	resp, err := f.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode())
	}

	data := resp.Body()
	if len(data) == 0 {
		return nil, fmt.Errorf("downloaded image is empty")
	}
	if len(data) > f.maxBytes {
		return nil, fmt.Errorf("downloaded image too large (%d bytes, max %d)", len(data), f.maxBytes)
	}

	slog.Info("Downloaded image", "url", u.String(), "bytes", len(data))
	return data, nil
}

// Filename returns the last path segment of rawURL, or a default name
func Filename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "image.jpg"
	}
	name := u.Path
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			name = name[i+1:]
			break
		}
	}
	if name == "" {
		return "image.jpg"
	}
	return name
}
