package pricing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/parquet-go/parquet-go"
)

func intPtr(n int) *int { return &n }

func sampleListings() []Listing {
	return []Listing{
		{PieceID: "3001", Name: "Brick 2 x 4", Color: "Red", Price: 0.25, Stock: intPtr(500)},
		{PieceID: "3001", Name: "Brick 2 x 4", Color: "Dark Red", Price: 0.40, Stock: intPtr(40)},
		{PieceID: "3001", Name: "Brick 2 x 4", Color: "Blue", Price: 0.20},
		{PieceID: "3020", Name: "Plate 2 x 4", Color: "Red", Price: 0.10},
		{PieceID: "2456", Name: "Brick 2 x 6", Color: "Red", Price: 0.35},
		{PieceID: "3001pr", Name: "Brick 2 x 4 with print", Color: "Red", Category: "Brick 2x4", Price: 1.10},
	}
}

func TestNewLoader(t *testing.T) {
	path := "./catalog.parquet"
	loader := NewLoader(path)

	if loader.path != path {
		t.Errorf("Expected path %s, got %s", path, loader.path)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("catalog.csv").Load(); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `parts:
  - piece_id: "3001"
    name: Brick 2 x 4
    color: Red
    price: 0.25
    stock: 12
  - piece_id: "3020"
    name: Plate 2 x 4
    color: Blue
    price: 0.1
    limited: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	listings, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(listings))
	}
	if listings[0].Stock == nil || *listings[0].Stock != 12 {
		t.Errorf("Expected stock 12, got %v", listings[0].Stock)
	}
	if !listings[1].Limited || listings[1].Stock != nil {
		t.Errorf("Expected limited listing with unknown stock, got %+v", listings[1])
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	doc := `{"piece_id":"3001","name":"Brick 2 x 4","color":"Red","price":0.25}

{"piece_id":"3020","name":"Plate 2 x 4","color":"Blue","price":0.1,"stock":0}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	listings, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(listings) != 1 || listings[0].PieceID != "3001" {
		t.Errorf("Expected first listing only, got %+v", listings)
	}

	all, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(all))
	}
	if all[1].InStock() {
		t.Error("Expected zero stock listing to be out of stock")
	}
}

func TestLoadJSONLBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := parquet.WriteFile(path, sampleListings()); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if catalog.Len() != len(sampleListings()) {
		t.Errorf("Expected %d listings, got %d", len(sampleListings()), catalog.Len())
	}

	l, err := catalog.Lookup(context.Background(), "3001", "red")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if l.Price != 0.25 {
		t.Errorf("Expected price 0.25, got %v", l.Price)
	}
}

func TestLoadParquetManyBatches(t *testing.T) {
	const total = 300
	listings := make([]Listing, total)
	for i := range listings {
		listings[i] = Listing{
			PieceID: fmt.Sprintf("p%d", i),
			Name:    "Brick 1 x 1",
			Color:   "Red",
			Price:   0.05,
		}
		if i%7 != 0 {
			listings[i].Stock = intPtr(i)
		}
	}

	path := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := parquet.WriteFile(path, listings); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	loaded, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(loaded) != total {
		t.Fatalf("Expected %d listings, got %d", total, len(loaded))
	}

	for i, l := range loaded {
		if l.PieceID != fmt.Sprintf("p%d", i) {
			t.Errorf("Row %d: expected piece p%d, got %s", i, i, l.PieceID)
			continue
		}
		if i%7 == 0 {
			if l.Stock != nil {
				t.Errorf("Row %d: expected unknown stock, got %d", i, *l.Stock)
			}
			continue
		}
		if l.Stock == nil || *l.Stock != i {
			t.Errorf("Row %d: expected stock %d, got %v", i, i, l.Stock)
		}
	}
}

func TestLoadParquetCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := os.WriteFile(path, []byte("not a parquet file"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected error for corrupt parquet file")
	}
}

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog(sampleListings())
	ctx := context.Background()

	tests := []struct {
		name    string
		pieceID string
		color   string
		price   float64
		missing bool
	}{
		{name: "exact", pieceID: "3001", color: "Red", price: 0.25},
		{name: "case and spacing", pieceID: " 3001 ", color: "dark  RED", price: 0.40},
		{name: "unknown color", pieceID: "3001", color: "Green", missing: true},
		{name: "unknown piece", pieceID: "9999", color: "Red", missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := catalog.Lookup(ctx, tt.pieceID, tt.color)
			if tt.missing {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if l.Price != tt.price {
				t.Errorf("Expected price %v, got %v", tt.price, l.Price)
			}
		})
	}
}

func TestCatalogLookupCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCatalog(sampleListings()).Lookup(ctx, "3001", "Red"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCatalogCandidates(t *testing.T) {
	catalog := NewCatalog(sampleListings())
	part := models.Part{PieceID: "3001", PieceName: "Brick 2x4", Color: "Red", Quantity: 1, EstimatedPrice: 0.3}

	got, err := catalog.Candidates(context.Background(), part)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var ids []string
	for _, l := range got {
		ids = append(ids, l.PieceID+"/"+l.Color)
	}
	expected := []string{"3001/Blue", "3001/Dark Red", "3001pr/Red"}
	if len(ids) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, ids)
			break
		}
	}
}
