package cmd

import (
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/brickify/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brickify",
		Short: "Turn photos into LEGO builds with a priced parts list",
		Long: `Brickify turns a photo into a brick-built rendition of its subject and a
parts list checked against a pricing catalog.

Run it as a web service with "serve", or convert a single image from the
command line with "convert".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if cfg, err := config.Load(); err == nil {
				configureLogging(cfg.Logging)
			}
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}
