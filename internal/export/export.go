// Package export writes a validated blueprint to disk as a YAML bill of
// materials next to the decoded LEGO image.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/brickify/internal/imaging"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrNotValidated is returned for blueprints without validated parts
var ErrNotValidated = errors.New("blueprint has not been validated")

// Summary is the header section of a bill of materials
type Summary struct {
	Title           string            `yaml:"title"`
	Size            models.Size       `yaml:"size"`
	Description     string            `yaml:"description,omitempty"`
	DifficultyLevel models.Difficulty `yaml:"difficulty_level"`
	BuildTime       string            `yaml:"build_time"`
	TotalPieces     int               `yaml:"total_pieces"`
	EstimatedCost   float64           `yaml:"estimated_cost"`
	RealTotalCost   float64           `yaml:"real_total_cost"`
	IsFallback      bool              `yaml:"is_fallback,omitempty"`
	Image           string            `yaml:"image,omitempty"`
	GeneratedAt     string            `yaml:"generated_at"`
}

// BillOfMaterials is the YAML document written by SaveBillOfMaterials
type BillOfMaterials struct {
	Summary Summary                `yaml:"summary"`
	Parts   []models.ValidatedPart `yaml:"parts"`
}

// Files are the paths written by SaveBillOfMaterials
type Files struct {
	BillOfMaterials string
	Image           string
}

// SaveBillOfMaterials writes bp into dir and returns the file paths
func SaveBillOfMaterials(dir string, bp *models.Blueprint) (Files, error) {
	if !bp.Validated() {
		return Files{}, ErrNotValidated
	}

	img, err := imaging.DecodeDataURI(bp.LegoImageData)
	if err != nil {
		return Files{}, fmt.Errorf("failed to decode LEGO image: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fmt.Sprintf("%s-%s-%s", slug(bp.Title), strings.ToLower(string(bp.Size)), generatedAt(bp).Format("2006-01-02_15-04-05"))

	files := Files{
		BillOfMaterials: filepath.Join(dir, base+".yaml"),
		Image:           filepath.Join(dir, base+img.Extension()),
	}

	data, err := MarshalBillOfMaterials(bp, filepath.Base(files.Image))
	if err != nil {
		return Files{}, err
	}

	if err := os.WriteFile(files.Image, img.Data, 0644); err != nil {
		return Files{}, fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.WriteFile(files.BillOfMaterials, data, 0644); err != nil {
		return Files{}, fmt.Errorf("failed to write YAML file: %w", err)
	}

	return files, nil
}

// MarshalBillOfMaterials renders bp as a YAML bill of materials. imageName
// is recorded in the summary when the image is written alongside.
func MarshalBillOfMaterials(bp *models.Blueprint, imageName string) ([]byte, error) {
	if !bp.Validated() {
		return nil, ErrNotValidated
	}

	doc := BillOfMaterials{
		Summary: Summary{
			Title:           bp.Title,
			Size:            bp.Size,
			Description:     bp.Description,
			DifficultyLevel: bp.DifficultyLevel,
			BuildTime:       bp.BuildTime,
			TotalPieces:     bp.TotalPieces,
			EstimatedCost:   bp.EstimatedCost,
			RealTotalCost:   *bp.RealTotalCost,
			IsFallback:      bp.IsFallback,
			Image:           imageName,
			GeneratedAt:     generatedAt(bp).Format(time.RFC3339),
		},
		Parts: bp.ValidatedParts,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

func generatedAt(bp *models.Blueprint) time.Time {
	if bp.CreatedAt.IsZero() {
		return time.Now()
	}
	return bp.CreatedAt
}

// LoadBillOfMaterials reads a file written by SaveBillOfMaterials
func LoadBillOfMaterials(path string) (*BillOfMaterials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bill of materials: %w", err)
	}
	var doc BillOfMaterials
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bill of materials: %w", err)
	}
	return &doc, nil
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "build"
	}
	return s
}
