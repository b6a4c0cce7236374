package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/export"
	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/lehigh-university-libraries/brickify/internal/session"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var sizeName string
	var also []string
	var outDir string
	var showParts bool

	cmd := &cobra.Command{
		Use:   "convert IMAGE",
		Short: "Convert one photo into LEGO builds and write their bills of materials",
		Long: `Convert a local image file or an http(s) image URL.

The first build is generated at --size. Every size passed with --also is
derived from the same photo afterwards. Each build is written to --out as
a PNG/JPEG image plus a YAML bill of materials with validated prices.`,
		Example: `  # Medium build of a local photo
  brickify convert ./cat.jpg

  # Micro build, then a Large version of the same photo
  brickify convert ./cat.jpg --size micro --also large --out ./builds`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := models.ParseSize(sizeName)
			if err != nil {
				return err
			}
			extra, err := parseSizes(also, size)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return executeConvert(cmd.Context(), cmd.OutOrStdout(), a.deps, args[0], size, extra, outDir, showParts)
		},
	}

	cmd.Flags().StringVarP(&sizeName, "size", "s", string(models.SizeMedium), "Size of the first build (micro, medium, large)")
	cmd.Flags().StringSliceVar(&also, "also", nil, "Additional sizes to derive from the same photo")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for images and bills of materials")
	cmd.Flags().BoolVar(&showParts, "parts", true, "Print the validated parts list")

	return cmd
}

// parseSizes parses extra sizes, dropping duplicates and the first size
func parseSizes(names []string, first models.Size) ([]models.Size, error) {
	seen := map[models.Size]bool{first: true}
	var sizes []models.Size
	for _, name := range names {
		size, err := models.ParseSize(name)
		if err != nil {
			return nil, err
		}
		if seen[size] {
			continue
		}
		seen[size] = true
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func executeConvert(ctx context.Context, out io.Writer, deps session.Deps, source string, size models.Size, extra []models.Size, outDir string, showParts bool) error {
	s := session.New("cli", deps)

	if isURL(source) {
		if err := s.SelectImageURL(ctx, source); err != nil {
			return fmt.Errorf("failed to fetch image: %w", err)
		}
	} else {
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		if err := s.SelectImage(data, filepath.Base(source)); err != nil {
			return err
		}
	}

	if err := s.Convert(ctx, size); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	for _, next := range extra {
		if err := s.Resize(ctx, next); err != nil {
			slog.Error("Resize failed", "size", next, "err", err)
			fmt.Fprintf(out, "Could not build %s version: %v\n", next, err)
		}
	}

	snap := s.Snapshot()
	fmt.Fprintf(out, "Generated %d build(s) from %s\n", len(snap.Versions), source)
	fmt.Fprintln(out, strings.Repeat("=", 80))

	for _, v := range snap.Versions {
		bp, err := s.Version(v.Index)
		if err != nil {
			return err
		}

		files, err := export.SaveBillOfMaterials(outDir, bp)
		if err != nil {
			return fmt.Errorf("failed to save %s build: %w", bp.Size, err)
		}

		printBlueprint(out, bp, files, showParts)
	}

	return nil
}

func printBlueprint(out io.Writer, bp *models.Blueprint, files export.Files, showParts bool) {
	fmt.Fprintf(out, "%s (%s)\n", bp.Title, bp.Size)
	fmt.Fprintln(out, strings.Repeat("-", 80))
	if bp.IsFallback {
		fmt.Fprintln(out, "Note:           parts could not be analyzed; showing a starter parts list")
	}
	fmt.Fprintf(out, "Difficulty:     %s\n", bp.DifficultyLevel)
	fmt.Fprintf(out, "Build time:     %s\n", bp.BuildTime)
	fmt.Fprintf(out, "Total pieces:   %d\n", bp.TotalPieces)
	fmt.Fprintf(out, "Estimated cost: $%.2f\n", bp.EstimatedCost)
	if bp.RealTotalCost != nil {
		fmt.Fprintf(out, "Real cost:      $%.2f\n", *bp.RealTotalCost)
	}
	fmt.Fprintf(out, "Image:          %s\n", files.Image)
	fmt.Fprintf(out, "Parts list:     %s\n", files.BillOfMaterials)

	if showParts {
		fmt.Fprintln(out)
		for _, p := range bp.ValidatedParts {
			line := fmt.Sprintf("  %3dx %-10s %-30s %-18s $%7.2f  %s", p.Quantity, p.PieceID, p.PieceName, p.Color, p.LineTotal(), p.Availability)
			if p.IsAlternative {
				line += " (substitute " + p.SubstitutePieceID + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
	fmt.Fprintln(out)
}
