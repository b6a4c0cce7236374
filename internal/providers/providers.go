package providers

import (
	"context"
	"strings"
)

// Image is an inline image sent to or returned from a provider
type Image struct {
	MIMEType string
	Data     []byte
}

// Request represents a single multimodal call to a generative provider
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
	// WantImage asks the provider for an inline image in the response
	WantImage bool
	// JSON asks the provider to answer with a JSON document only
	JSON bool
}

// Response holds every part returned by a provider, in order
type Response struct {
	Texts  []string
	Images []Image
}

// FirstImage returns the first inline image in the response, if any
func (r *Response) FirstImage() (Image, bool) {
	if r == nil {
		return Image{}, false
	}
	for _, img := range r.Images {
		if len(img.Data) > 0 {
			return img, true
		}
	}
	return Image{}, false
}

// Text joins all text parts of the response
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Texts, "")
}

// Generator defines the interface for an image and text generation provider
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, req Request) (*Response, error)

// Generate calls f(ctx, req)
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
