// Package pricing resolves AI-proposed parts against a pricing and
// availability authority.
//
// Two authorities are provided: Catalog, an in-memory index loaded from a
// Parquet, YAML or JSONL file, and Remote, a REST client for a hosted parts
// price service. Unpriced is used when no authority is configured and makes
// every lookup miss.
//
// Substitution is decided by a Matcher. Rules is the default Matcher and is
// configurable from YAML.
package pricing

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

// ErrNotFound is returned by Lookup when the authority has no exact match
var ErrNotFound = errors.New("part not found")

// Listing is one catalog entry as reported by a pricing authority
type Listing struct {
	PieceID  string  `json:"piece_id" yaml:"piece_id" parquet:"piece_id"`
	Name     string  `json:"name" yaml:"name" parquet:"name"`
	Color    string  `json:"color" yaml:"color" parquet:"color"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty" parquet:"category"`
	Price    float64 `json:"price" yaml:"price" parquet:"price"` // unit price
	Stock    *int    `json:"stock,omitempty" yaml:"stock,omitempty" parquet:"stock,optional"`
	Limited  bool    `json:"limited,omitempty" yaml:"limited,omitempty" parquet:"limited"`
	URL      string  `json:"url,omitempty" yaml:"url,omitempty" parquet:"url"`
}

// InStock reports whether the listing has stock. Unknown stock counts as in stock.
func (l Listing) InStock() bool {
	return l.Stock == nil || *l.Stock > 0
}

// EffectiveCategory returns the explicit category, or one derived from the name
func (l Listing) EffectiveCategory() string {
	if l.Category != "" {
		return strings.ToLower(strings.TrimSpace(l.Category))
	}
	return CategoryOf(l.Name)
}

// Authority defines the interface for a parts pricing and availability source
type Authority interface {
	// Lookup returns the exact match for pieceID in color, or ErrNotFound
	Lookup(ctx context.Context, pieceID, color string) (*Listing, error)
	// Candidates returns listings that could stand in for part
	Candidates(ctx context.Context, part models.Part) ([]Listing, error)
}

// Unpriced is an Authority with an empty catalog
type Unpriced struct{}

// Lookup always returns ErrNotFound
func (Unpriced) Lookup(context.Context, string, string) (*Listing, error) {
	return nil, ErrNotFound
}

// Candidates always returns no listings
func (Unpriced) Candidates(context.Context, models.Part) ([]Listing, error) {
	return nil, nil
}

// NormalizeKey lowercases and trims a piece ID or color for matching
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var (
	dimensionPattern = regexp.MustCompile(`(\d+)\s*[x×]\s*(\d+)(?:\s*[x×]\s*(\d+))?`)
	knownKinds       = []string{"brick", "plate", "tile", "slope", "wedge", "arch", "cone", "cylinder", "round", "technic", "window", "door", "hinge", "bracket", "panel", "minifig", "plant", "wheel"}
)

// CategoryOf derives a nominal size category such as "brick 2x4" from a part name
func CategoryOf(name string) string {
	lower := strings.ToLower(name)

	kind := ""
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		for _, k := range knownKinds {
			if word == k || word == k+"s" {
				kind = k
				break
			}
		}
		if kind != "" {
			break
		}
	}

	dims := ""
	if m := dimensionPattern.FindStringSubmatch(lower); m != nil {
		dims = m[1] + "x" + m[2]
		if m[3] != "" {
			dims += "x" + m[3]
		}
	}

	return strings.TrimSpace(kind + " " + dims)
}
