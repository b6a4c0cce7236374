package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/brickify/internal/providers"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("https://example.com", ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer token, got %q", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if _, ok := body["response_format"]; !ok {
			t.Error("Expected response_format for JSON requests")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"T\"}"}}]}`))
	}))
	defer server.Close()

	o, err := New(server.URL, "secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	resp, err := o.Generate(context.Background(), providers.Request{
		Model:  "gpt-4o",
		Prompt: "parts please",
		Images: []providers.Image{{MIMEType: "image/png", Data: []byte("img")}},
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Text() != `{"title":"T"}` {
		t.Errorf("Unexpected text %q", resp.Text())
	}
}

func TestGenerateImageEdit(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("brick image"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/edits" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Expected multipart request, got %s", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			return
		}
		if r.FormValue("prompt") != "make it bricks" {
			t.Errorf("Unexpected prompt %q", r.FormValue("prompt"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"` + encoded + `"}]}`))
	}))
	defer server.Close()

	o, err := New(server.URL, "secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	resp, err := o.Generate(context.Background(), providers.Request{
		Model:     "gpt-image-1",
		Prompt:    "make it bricks",
		Images:    []providers.Image{{MIMEType: "image/jpeg", Data: []byte("photo")}},
		WantImage: true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	img, ok := resp.FirstImage()
	if !ok {
		t.Fatal("Expected an image in the response")
	}
	if string(img.Data) != "brick image" {
		t.Errorf("Unexpected image data %q", string(img.Data))
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	o, err := New(server.URL, "secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = o.Generate(context.Background(), providers.Request{Model: "gpt-4o", Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status error, got %v", err)
	}
}
