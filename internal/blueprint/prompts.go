package blueprint

import (
	"fmt"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

// tier holds the size-specific constraints written into both stage prompts
type tier struct {
	PieceRange string
	Detail     string
	Difficulty models.Difficulty
	BuildTime  string
}

var tiers = map[models.Size]tier{
	models.SizeMicro: {
		PieceRange: "fewer than 75 pieces",
		Detail:     "drastically simplified, keeping only the essential features",
		Difficulty: models.DifficultyBeginner,
		BuildTime:  "15-30 minutes",
	},
	models.SizeMedium: {
		PieceRange: "between 100 and 300 pieces",
		Detail:     "balanced detail, shelf-display quality",
		Difficulty: models.DifficultyIntermediate,
		BuildTime:  "1-2 hours",
	},
	models.SizeLarge: {
		PieceRange: "between 400 and 1000 pieces",
		Detail:     "highly detailed, using intricate building techniques",
		Difficulty: models.DifficultyAdvanced,
		BuildTime:  "3-6 hours",
	},
}

func tierFor(size models.Size) tier {
	if t, ok := tiers[size]; ok {
		return t
	}
	return tiers[models.SizeMedium]
}

// buildImagePrompt returns the Stage A instruction for size
func buildImagePrompt(size models.Size) string {
	t := tierFor(size)
	return fmt.Sprintf(`Recreate the subject of this photo as a %s model built entirely from LEGO bricks.

Size constraints:
- The model must use %s
- Detail level: %s

Style requirements:
- Plain, neutral studio background
- Consistent three-quarter camera angle, slightly above the model
- Clearly recognizable as built from real interlocking plastic LEGO elements, with visible studs
- Realistic LEGO colors and lighting
- Do NOT include any text, logos, labels or watermarks in the image

Return only the generated image.`, size, t.PieceRange, t.Detail)
}

// buildPartsPrompt returns the Stage B instruction for size
func buildPartsPrompt(size models.Size) string {
	t := tierFor(size)
	return fmt.Sprintf(`You are an expert LEGO set designer. Analyze this image of a %s LEGO model and produce the parts list needed to build it.

Size constraints:
- The parts list must total %s
- Detail level: %s

Use real LEGO design IDs (for example "3001" for Brick 2 x 4) and official LEGO color names.
Estimate a realistic per-piece price in US dollars for each part.

Return ONLY a JSON object, with no other text, in exactly this format:
{
  "title": "short descriptive name of the model",
  "partsList": [
    {"pieceId": "3001", "pieceName": "Brick 2 x 4", "color": "Red", "quantity": 4, "estimatedPrice": 0.10}
  ],
  "totalPieces": 0,
  "estimatedCost": 0.0,
  "difficultyLevel": "Beginner | Intermediate | Advanced",
  "buildTime": "estimated build time, e.g. 1-2 hours",
  "description": "one or two sentences describing the model"
}`, size, t.PieceRange, t.Detail)
}
