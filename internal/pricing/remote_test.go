package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

func newPricingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "key secret" {
			t.Errorf("Expected authorization header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/parts/3001":
			if r.URL.Query().Get("color") != "Red" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(Listing{PieceID: "3001", Name: "Brick 2 x 4", Color: "Red", Price: 0.25})
		case "/parts/500":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		case "/parts":
			if r.URL.Query().Get("category") != "brick 2x4" {
				t.Errorf("Expected category query, got %q", r.URL.Query().Get("category"))
			}
			_ = json.NewEncoder(w).Encode(map[string][]Listing{"results": {
				{PieceID: "3001", Color: "Red", Price: 0.25},
				{PieceID: "3001", Color: "Blue", Price: 0.2},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRemoteLookup(t *testing.T) {
	server := newPricingServer(t)
	defer server.Close()

	remote := NewRemote(server.URL, "secret", 0)
	ctx := context.Background()

	l, err := remote.Lookup(ctx, "3001", "Red")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if l.Price != 0.25 {
		t.Errorf("Expected price 0.25, got %v", l.Price)
	}

	if _, err := remote.Lookup(ctx, "3001", "Green"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = remote.Lookup(ctx, "500", "Red")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected service error, got %v", err)
	}
}

func TestRemoteCandidates(t *testing.T) {
	server := newPricingServer(t)
	defer server.Close()

	remote := NewRemote(server.URL, "secret", 100)
	got, err := remote.Candidates(context.Background(), models.Part{PieceID: "3001", PieceName: "Brick 2 x 4", Color: "Red"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Color != "Blue" {
		t.Errorf("Expected the exact part to be filtered out, got %+v", got)
	}
}

func TestRemoteUnreachable(t *testing.T) {
	server := newPricingServer(t)
	server.Close()

	remote := NewRemote(server.URL, "secret", 0)
	if _, err := remote.Lookup(context.Background(), "3001", "Red"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected transport error, got %v", err)
	}
}
