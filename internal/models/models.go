package models

import (
	"fmt"
	"strings"
	"time"
)

// Size is the target model size tier for a generated build
type Size string

const (
	SizeMicro  Size = "Micro"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

// Sizes lists every size tier from smallest to largest
var Sizes = []Size{SizeMicro, SizeMedium, SizeLarge}

// ParseSize converts a user supplied size name (case-insensitive) to a Size
func ParseSize(s string) (Size, error) {
	for _, size := range Sizes {
		if strings.EqualFold(strings.TrimSpace(s), string(size)) {
			return size, nil
		}
	}
	return "", fmt.Errorf("invalid size %q. Must be 'Micro', 'Medium', or 'Large'", s)
}

// Difficulty is the AI-reported build difficulty
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Availability is the stock signal attached to a validated part
type Availability string

const (
	AvailabilityAvailable         Availability = "Available"
	AvailabilityRare              Availability = "Rare"
	AvailabilityCheckAlternatives Availability = "Check Alternatives"
)

// Valid reports whether a is one of the defined availability values
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityRare, AvailabilityCheckAlternatives:
		return true
	default:
		return false
	}
}

// Part is a single line of an AI-proposed parts list
type Part struct {
	PieceID        string  `json:"pieceId" yaml:"piece_id"`
	PieceName      string  `json:"pieceName" yaml:"piece_name"`
	Color          string  `json:"color" yaml:"color"`
	Quantity       int     `json:"quantity" yaml:"quantity"`
	EstimatedPrice float64 `json:"estimatedPrice" yaml:"estimated_price"` // unit price
}

// ValidatedPart is a Part enriched with price and availability from a pricing authority
type ValidatedPart struct {
	Part              `yaml:",inline"`
	RealPrice         float64      `json:"realPrice" yaml:"real_price"` // unit price
	Availability      Availability `json:"availability" yaml:"availability"`
	LookupURL         string       `json:"lookupUrl" yaml:"lookup_url"`
	IsAlternative     bool         `json:"isAlternative,omitempty" yaml:"is_alternative,omitempty"`
	SubstitutePieceID string       `json:"substitutePieceId,omitempty" yaml:"substitute_piece_id,omitempty"`
	Notes             string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// LineTotal returns RealPrice multiplied by Quantity
func (v ValidatedPart) LineTotal() float64 {
	return v.RealPrice * float64(v.Quantity)
}

// Blueprint is the complete output of one generation run.
// TotalPieces and EstimatedCost are reported by the model and are never
// reconciled against PartsList.
type Blueprint struct {
	Title           string          `json:"title"`
	LegoImageData   string          `json:"legoImageData"`
	PartsList       []Part          `json:"partsList"`
	TotalPieces     int             `json:"totalPieces"`
	EstimatedCost   float64         `json:"estimatedCost"`
	DifficultyLevel Difficulty      `json:"difficultyLevel"`
	BuildTime       string          `json:"buildTime"`
	Description     string          `json:"description"`
	Size            Size            `json:"size"`
	ValidatedParts  []ValidatedPart `json:"validatedParts,omitempty"`
	RealTotalCost   *float64        `json:"realTotalCost,omitempty"`
	IsFallback      bool            `json:"isFallback,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Clone returns a deep copy of the blueprint
func (b *Blueprint) Clone() *Blueprint {
	if b == nil {
		return nil
	}
	c := *b
	if b.PartsList != nil {
		c.PartsList = append([]Part(nil), b.PartsList...)
	}
	if b.ValidatedParts != nil {
		c.ValidatedParts = append([]ValidatedPart(nil), b.ValidatedParts...)
	}
	if b.RealTotalCost != nil {
		total := *b.RealTotalCost
		c.RealTotalCost = &total
	}
	return &c
}

// WithValidation returns a copy of the blueprint with validated parts and their
// total attached. The receiver is left untouched.
func (b *Blueprint) WithValidation(parts []ValidatedPart, total float64) *Blueprint {
	c := b.Clone()
	c.ValidatedParts = make([]ValidatedPart, len(parts))
	copy(c.ValidatedParts, parts)
	c.RealTotalCost = &total
	return c
}

// Validated reports whether validated parts and the real total are attached
func (b *Blueprint) Validated() bool {
	return b != nil && b.ValidatedParts != nil && b.RealTotalCost != nil
}
