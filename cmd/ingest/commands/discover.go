package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/catalog"
	"github.com/user/rating-ingest/internal/usecase"
)

var (
	discoverFrom int64
	discoverTo   int64
	discoverOut  string
)

func init() {
	discoverCmd.Flags().Int64Var(&discoverFrom, "from", 1, "First school id to check.")
	discoverCmd.Flags().Int64Var(&discoverTo, "to", 6000, "Id to stop before.")
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "Catalog file to write. Defaults to CATALOG_PATH.")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover [--from <id>] [--to <id>] [--out <catalog.json>]",
	Short: "Scans listing pages over an id range and writes the schools found as a catalog.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := discoverOut
		if out == "" {
			out = cfg.CatalogPath
		}

		loader := mustOpenPageLoader()
		defer closePageLoader(loader)

		found, err := usecase.NewCatalogDiscoverer(cfg.ListingBaseURL, loader, log).Discover(cmd.Context(), discoverFrom, discoverTo)
		if err != nil && !errors.Is(err, cmd.Context().Err()) {
			return err
		}
		// An interrupted run still keeps what it found.
		if writeErr := catalog.WriteFile(out, found); writeErr != nil {
			return fmt.Errorf("write catalog: %w", writeErr)
		}
		log.Info("Catalog written", zap.String("path", out), zap.Int("schools", len(found)))
		return err
	},
}
