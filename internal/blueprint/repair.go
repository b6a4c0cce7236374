package blueprint

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

// ExtractJSON returns the substring from the first '{' to the last '}' in
// text, or "" when there is no such pair
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// number accepts JSON numbers and numeric strings such as "0.10" or "$0.10"
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(unquoted), "$"))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %s", string(b))
	}
	*n = number(f)
	return nil
}

type partPayload struct {
	PieceID        json.RawMessage `json:"pieceId"`
	PieceName      string          `json:"pieceName"`
	Color          string          `json:"color"`
	Quantity       number          `json:"quantity"`
	EstimatedPrice number          `json:"estimatedPrice"`
}

// payload is the Stage B document. Image data and size in the document are
// ignored.
type payload struct {
	Title           string        `json:"title"`
	PartsList       []partPayload `json:"partsList"`
	TotalPieces     number        `json:"totalPieces"`
	EstimatedCost   number        `json:"estimatedCost"`
	DifficultyLevel string        `json:"difficultyLevel"`
	BuildTime       string        `json:"buildTime"`
	Description     string        `json:"description"`
}

// parseBlueprint repairs and parses a Stage B response. It returns an error
// when the text has no usable JSON, no title, or no parts.
func parseBlueprint(text string, size models.Size) (*models.Blueprint, error) {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to parse parts JSON: %w", err)
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("parts JSON has no title")
	}

	parts := make([]models.Part, 0, len(p.PartsList))
	for _, pp := range p.PartsList {
		qty := int(math.Round(float64(pp.Quantity)))
		if qty < 1 {
			continue
		}
		parts = append(parts, models.Part{
			PieceID:        pieceID(pp.PieceID),
			PieceName:      strings.TrimSpace(pp.PieceName),
			Color:          strings.TrimSpace(pp.Color),
			Quantity:       qty,
			EstimatedPrice: float64(pp.EstimatedPrice),
		})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("parts JSON has an empty parts list")
	}

	t := tierFor(size)
	buildTime := strings.TrimSpace(p.BuildTime)
	if buildTime == "" {
		buildTime = t.BuildTime
	}

	return &models.Blueprint{
		Title:           title,
		PartsList:       parts,
		TotalPieces:     int(math.Round(float64(p.TotalPieces))),
		EstimatedCost:   float64(p.EstimatedCost),
		DifficultyLevel: parseDifficulty(p.DifficultyLevel, t.Difficulty),
		BuildTime:       buildTime,
		Description:     strings.TrimSpace(p.Description),
	}, nil
}

// pieceID accepts "3001" or 3001
func pieceID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func parseDifficulty(s string, fallback models.Difficulty) models.Difficulty {
	for _, d := range []models.Difficulty{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d
		}
	}
	return fallback
}
