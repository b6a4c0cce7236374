package blueprint

import (
	"github.com/lehigh-university-libraries/brickify/internal/models"
)

const (
	fallbackTitle       = "Custom LEGO Creation"
	fallbackDescription = "A brick-built interpretation of your photo. A detailed parts analysis was not available, so a generic starter parts list is shown."
)

var fallbackParts = []models.Part{
	{PieceID: "3001", PieceName: "Brick 2 x 4", Color: "Red", Quantity: 12, EstimatedPrice: 0.15},
	{PieceID: "3003", PieceName: "Brick 2 x 2", Color: "Blue", Quantity: 10, EstimatedPrice: 0.10},
	{PieceID: "3020", PieceName: "Plate 2 x 4", Color: "White", Quantity: 8, EstimatedPrice: 0.08},
	{PieceID: "3023", PieceName: "Plate 1 x 2", Color: "Black", Quantity: 16, EstimatedPrice: 0.05},
	{PieceID: "3069b", PieceName: "Tile 1 x 2", Color: "Light Bluish Gray", Quantity: 6, EstimatedPrice: 0.06},
}

// fallbackBlueprint returns the canned blueprint used when parts extraction
// fails. Image data and size are set by the caller.
func fallbackBlueprint(size models.Size) *models.Blueprint {
	parts := append([]models.Part(nil), fallbackParts...)

	pieces := 0
	cost := 0.0
	for _, p := range parts {
		pieces += p.Quantity
		cost += p.EstimatedPrice * float64(p.Quantity)
	}

	t := tierFor(size)
	return &models.Blueprint{
		Title:           fallbackTitle,
		PartsList:       parts,
		TotalPieces:     pieces,
		EstimatedCost:   cost,
		DifficultyLevel: t.Difficulty,
		BuildTime:       t.BuildTime,
		Description:     fallbackDescription,
		IsFallback:      true,
	}
}
