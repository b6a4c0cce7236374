package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/demo.png":
			_, _ = w.Write([]byte("png-bytes"))
		case "/empty.png":
			w.WriteHeader(http.StatusOK)
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/huge.png":
			// streamed without a Content-Length
			chunk := []byte(strings.Repeat("x", 1024))
			for i := 0; i < 4096; i++ {
				if _, err := w.Write(chunk); err != nil {
					return
				}
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher(32)

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr string
	}{
		{name: "ok", url: server.URL + "/demo.png", want: "png-bytes"},
		{name: "not found", url: server.URL + "/missing.png", wantErr: "HTTP 404"},
		{name: "empty body", url: server.URL + "/empty.png", wantErr: "empty"},
		{name: "too large", url: server.URL + "/big.png", wantErr: "too large"},
		{name: "streamed past limit", url: server.URL + "/huge.png", wantErr: "too large"},
		{name: "bad scheme", url: "ftp://example.com/a.png", wantErr: "invalid image URL"},
		{name: "garbage", url: "::::", wantErr: "invalid image URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := f.Fetch(context.Background(), tt.url)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, string(data))
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com/demo/cat.jpg", "cat.jpg"},
		{"https://example.com/", "image.jpg"},
		{"https://example.com/photo.png?size=large", "photo.png"},
	}

	for _, tt := range tests {
		if got := Filename(tt.url); got != tt.expected {
			t.Errorf("Filename(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
