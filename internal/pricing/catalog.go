package pricing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Catalog is an in-memory Authority built from a list of listings
type Catalog struct {
	listings []Listing
	exact    map[string]int
	byPiece  map[string][]int
}

// NewCatalog indexes listings. Later duplicates of a piece/color pair win.
func NewCatalog(listings []Listing) *Catalog {
	c := &Catalog{
		listings: append([]Listing(nil), listings...),
		exact:    make(map[string]int, len(listings)),
		byPiece:  make(map[string][]int),
	}
	for i, l := range c.listings {
		c.exact[catalogKey(l.PieceID, l.Color)] = i
		piece := NormalizeKey(l.PieceID)
		c.byPiece[piece] = append(c.byPiece[piece], i)
	}
	return c
}

// LoadCatalog reads a catalog file (.parquet, .yaml/.yml, .jsonl/.json)
func LoadCatalog(path string) (*Catalog, error) {
	listings, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded parts catalog", "path", path, "listings", len(listings))
	return NewCatalog(listings), nil
}

// Len returns the number of listings
func (c *Catalog) Len() int {
	return len(c.listings)
}

// Listings returns a copy of every listing in load order
func (c *Catalog) Listings() []Listing {
	return append([]Listing(nil), c.listings...)
}

// Lookup returns the listing for pieceID in color
func (c *Catalog) Lookup(ctx context.Context, pieceID, color string) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.exact[catalogKey(pieceID, color)]
	if !ok {
		return nil, ErrNotFound
	}
	l := c.listings[i]
	return &l, nil
}

// Candidates returns the same piece in other colors plus listings sharing the
// part's nominal category, cheapest first
func (c *Catalog) Candidates(ctx context.Context, part models.Part) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	self := catalogKey(part.PieceID, part.Color)
	category := CategoryOf(part.PieceName)
	seen := make(map[int]bool)
	var out []Listing

	for _, i := range c.byPiece[NormalizeKey(part.PieceID)] {
		if catalogKey(c.listings[i].PieceID, c.listings[i].Color) == self {
			continue
		}
		seen[i] = true
		out = append(out, c.listings[i])
	}

	if category != "" {
		for i, l := range c.listings {
			if seen[i] || catalogKey(l.PieceID, l.Color) == self {
				continue
			}
			if l.EffectiveCategory() == category {
				out = append(out, l)
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Price != out[b].Price {
			return out[a].Price < out[b].Price
		}
		return out[a].PieceID < out[b].PieceID
	})
	return out, nil
}

func catalogKey(pieceID, color string) string {
	return NormalizeKey(pieceID) + "|" + NormalizeKey(color)
}

// Loader reads catalog listings from disk
type Loader struct {
	path string
}

// NewLoader creates a new catalog loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load loads listings from the file, choosing the format by extension
func (l *Loader) Load() ([]Listing, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".yaml", ".yml":
		return l.loadYAML()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s (supported: .parquet, .yaml, .jsonl)", ext)
	}
}

// LoadSample loads at most limit listings
func (l *Loader) LoadSample(limit int) ([]Listing, error) {
	listings, err := l.Load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}
	return listings, nil
}

func (l *Loader) loadYAML() ([]Listing, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc struct {
		Parts []Listing `yaml:"parts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	return doc.Parts, nil
}

func (l *Loader) loadJSONL() ([]Listing, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	var listings []Listing
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var listing Listing
		if err := json.Unmarshal(line, &listing); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		listings = append(listings, listing)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}

	return listings, nil
}

func (l *Loader) loadParquet() ([]Listing, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Listing](pf)
	defer reader.Close()

	var listings []Listing

	for {
		// optional columns are decoded into existing pointers, so each batch
		// needs its own rows
		rows := make([]Listing, 128)
		n, err := reader.Read(rows)
		if n > 0 {
			listings = append(listings, rows[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_listings", len(listings))

	return listings, nil
}
