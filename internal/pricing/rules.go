package pricing

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/brickify/internal/models"
	"gopkg.in/yaml.v3"
)

// Matcher picks an acceptable stand-in for part from candidates
type Matcher interface {
	Pick(part models.Part, candidates []Listing) (Listing, bool)
}

// Rules is the YAML-configurable substitution policy.
//
//	match_category: true
//	match_color: true
//	max_price_ratio: 3
//	color_families:
//	  gray: [light bluish gray, dark bluish gray, light gray, dark gray]
type Rules struct {
	MatchCategory bool                `yaml:"match_category"`
	MatchColor    bool                `yaml:"match_color"`
	MaxPriceRatio float64             `yaml:"max_price_ratio"` // 0 disables the cap
	ColorFamilies map[string][]string `yaml:"color_families"`

	family map[string]string
}

// DefaultRules requires the same nominal category and color family
func DefaultRules() *Rules {
	r := &Rules{
		MatchCategory: true,
		MatchColor:    true,
		ColorFamilies: map[string][]string{
			"gray":   {"light bluish gray", "dark bluish gray", "light gray", "dark gray", "gray", "grey"},
			"red":    {"red", "dark red", "bright red"},
			"blue":   {"blue", "dark blue", "medium blue", "bright light blue", "dark azure", "medium azure"},
			"green":  {"green", "dark green", "bright green", "lime", "sand green"},
			"yellow": {"yellow", "bright light yellow", "bright light orange"},
			"brown":  {"brown", "reddish brown", "dark brown", "dark tan", "tan"},
			"white":  {"white", "very light gray", "white glow"},
		},
	}
	r.index()
	return r
}

// LoadRules reads substitution rules from a YAML file
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read substitution rules: %w", err)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse substitution rules: %w", err)
	}
	if r.MaxPriceRatio < 0 {
		return nil, fmt.Errorf("max_price_ratio must not be negative, got %g", r.MaxPriceRatio)
	}

	r.index()
	return &r, nil
}

func (r *Rules) index() {
	r.family = make(map[string]string)
	for name, colors := range r.ColorFamilies {
		for _, c := range colors {
			r.family[NormalizeKey(c)] = NormalizeKey(name)
		}
	}
}

// ColorFamily returns the family of color, or the color itself if unlisted
func (r *Rules) ColorFamily(color string) string {
	key := NormalizeKey(color)
	if fam, ok := r.family[key]; ok {
		return fam
	}
	return key
}

// Pick returns the first in-stock candidate satisfying the rules.
// Candidates with the part's own piece ID are preferred.
func (r *Rules) Pick(part models.Part, candidates []Listing) (Listing, bool) {
	var fallback *Listing
	for i := range candidates {
		c := candidates[i]
		if !r.accepts(part, c) {
			continue
		}
		if NormalizeKey(c.PieceID) == NormalizeKey(part.PieceID) {
			return c, true
		}
		if fallback == nil {
			fallback = &candidates[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Listing{}, false
}

func (r *Rules) accepts(part models.Part, c Listing) bool {
	if !c.InStock() {
		return false
	}

	samePiece := NormalizeKey(c.PieceID) == NormalizeKey(part.PieceID)
	if r.MatchCategory && !samePiece {
		category := CategoryOf(part.PieceName)
		if category == "" || c.EffectiveCategory() != category {
			return false
		}
	}

	if r.MatchColor && r.ColorFamily(c.Color) != r.ColorFamily(part.Color) {
		return false
	}

	if r.MaxPriceRatio > 0 && part.EstimatedPrice > 0 && c.Price > part.EstimatedPrice*r.MaxPriceRatio {
		return false
	}

	return true
}
