package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lehigh-university-libraries/brickify/internal/providers"
)

// DefaultURL is used when no Ollama URL is configured
const DefaultURL = "http://localhost:11434"

// ErrImageOutput is returned for requests that ask for an image back
var ErrImageOutput = errors.New("ollama cannot generate images")

// Ollama is a provider for a local Ollama server. It only answers text
// requests, so it is used for parts extraction.
type Ollama struct {
	client *resty.Client
}

// New returns a new Ollama provider
func New(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(5 * time.Minute).
		SetRetryCount(0)
	return &Ollama{client: client}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Format  string         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt and images to /api/generate
func (o *Ollama) Generate(ctx context.Context, req providers.Request) (*providers.Response, error) {
	if req.WantImage {
		return nil, ErrImageOutput
	}

	body := generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: map[string]any{"temperature": req.Temperature},
	}
	for _, img := range req.Images {
		body.Images = append(body.Images, base64.StdEncoding.EncodeToString(img.Data))
	}
	if req.JSON {
		body.Format = "json"
	}

	var result generateResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode(), resp.String())
	}

	return &providers.Response{Texts: []string{result.Response}}, nil
}
