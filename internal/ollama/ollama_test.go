package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/brickify/internal/providers"
)

func TestGenerate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"{\"title\":\"Cat\"}","done":true}`))
	}))
	defer server.Close()

	o := New(server.URL + "/")
	resp, err := o.Generate(context.Background(), providers.Request{
		Model:       "llava",
		Prompt:      "list the parts",
		Temperature: 0.2,
		Images:      []providers.Image{{MIMEType: "image/png", Data: []byte("abc")}},
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if resp.Text() != `{"title":"Cat"}` {
		t.Errorf("Expected response text, got %q", resp.Text())
	}
	if got.Model != "llava" || got.Format != "json" || got.Stream {
		t.Errorf("Unexpected request %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "YWJj" {
		t.Errorf("Expected base64 image, got %v", got.Images)
	}
}

func TestGenerateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	o := New(server.URL)

	if _, err := o.Generate(context.Background(), providers.Request{WantImage: true}); !errors.Is(err, ErrImageOutput) {
		t.Errorf("Expected ErrImageOutput, got %v", err)
	}

	if _, err := o.Generate(context.Background(), providers.Request{Model: "missing"}); err == nil {
		t.Error("Expected error for 404 response")
	}
}
