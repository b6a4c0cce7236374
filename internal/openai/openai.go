package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lehigh-university-libraries/brickify/internal/providers"
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// OpenAI is a provider for OpenAI. Image requests go to the image edits
// endpoint, everything else to chat completions.
type OpenAI struct {
	client *resty.Client
}

// New returns a new OpenAI provider
func New(baseURL, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(3 * time.Minute).
		SetRetryCount(0)

	return &OpenAI{client: client}, nil
}

// Generate dispatches the request to the matching OpenAI endpoint
func (o *OpenAI) Generate(ctx context.Context, req providers.Request) (*providers.Response, error) {
	if req.WantImage {
		return o.editImage(ctx, req)
	}
	return o.chat(ctx, req)
}

func (o *OpenAI) editImage(ctx context.Context, req providers.Request) (*providers.Response, error) {
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("image edits require an input image")
	}
	input := req.Images[0]

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"model":  req.Model,
			"prompt": req.Prompt,
		}).
		SetMultipartField("image", "input"+extensionFor(input.MIMEType), input.MIMEType, bytes.NewReader(input.Data)).
		SetResult(&result).
		Post("/images/edits")
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI images API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openAI images API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	out := &providers.Response{}
	for _, d := range result.Data {
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode OpenAI image: %w", err)
		}
		out.Images = append(out.Images, providers.Image{MIMEType: "image/png", Data: data})
	}

	return out, nil
}

func (o *OpenAI) chat(ctx context.Context, req providers.Request) (*providers.Response, error) {
	content := []map[string]any{
		{
			"type": "text",
			"text": req.Prompt,
		},
	}
	for _, img := range req.Images {
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	requestBody := map[string]any{
		"model": req.Model,
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": content,
			},
		},
		"max_tokens":  4000,
		"temperature": req.Temperature,
	}
	if req.JSON {
		requestBody["response_format"] = map[string]string{"type": "json_object"}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openAI API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &providers.Response{Texts: []string{result.Choices[0].Message.Content}}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
