package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/brickify/internal/pricing"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with parts pricing catalogs",
	}

	cmd.AddCommand(newCatalogInspectCmd())

	return cmd
}

func newCatalogInspectCmd() *cobra.Command {
	var path string
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print listings from a catalog file",
		Long: `Inspect listings from a parquet, yaml or jsonl parts catalog.

Useful for checking that a catalog loads and that names produce the
expected size categories for substitution.`,
		Example: `  # First 10 listings
  brickify catalog inspect --path ./catalog.parquet

  # Every listing
  brickify catalog inspect --path ./catalog.yaml --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.OutOrStdout(), path, limit)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Path to parquet, yaml or jsonl catalog file (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of listings to print (0 for all)")

	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func executeInspect(out io.Writer, path string, limit int) error {
	listings, err := pricing.NewLoader(path).LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	fmt.Fprintf(out, "Loaded %d listings from %s\n", len(listings), path)
	fmt.Fprintln(out, strings.Repeat("=", 80))

	for i, l := range listings {
		stock := "unknown"
		if l.Stock != nil {
			stock = fmt.Sprintf("%d", *l.Stock)
		}

		fmt.Fprintf(out, "LISTING %d/%d\n", i+1, len(listings))
		fmt.Fprintf(out, "Piece:     %s %s\n", l.PieceID, l.Name)
		fmt.Fprintf(out, "Color:     %s\n", l.Color)
		fmt.Fprintf(out, "Category:  %s\n", l.EffectiveCategory())
		fmt.Fprintf(out, "Price:     $%.2f\n", l.Price)
		fmt.Fprintf(out, "Stock:     %s\n", stock)
		if l.Limited {
			fmt.Fprintln(out, "Limited:   yes")
		}
		if l.URL != "" {
			fmt.Fprintf(out, "URL:       %s\n", l.URL)
		}
		fmt.Fprintln(out, strings.Repeat("-", 80))
	}

	return nil
}
