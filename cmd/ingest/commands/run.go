package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <school_id>...",
	Short: "Ingests the given schools one after another and exits.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		schoolCatalog := mustLoadCatalog()

		schools := make([]entity.School, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid school id %q: %w", arg, err)
			}
			name, ok := schoolCatalog[id]
			if !ok {
				return fmt.Errorf("school %d is not in the catalog", id)
			}
			schools = append(schools, entity.School{ID: id, Name: name})
		}

		pool := mustConnectPostgres(ctx)
		defer pool.Close()
		loader := mustOpenPageLoader()
		defer closePageLoader(loader)

		reports := newIngester(pool, loader).IngestAll(ctx, schools)

		failed := 0
		for _, r := range reports {
			if r.Err != nil {
				failed++
				continue
			}
			log.Info("School ingested",
				zap.Int64("school_id", r.SchoolID),
				zap.String("school_name", r.SchoolName),
				zap.Int("records", r.Records),
				zap.Int64("inserted", r.Load.Inserted),
				zap.Int("skipped", len(r.Load.Skipped)),
				zap.String("snapshot", r.SnapshotPath),
			)
		}
		if failed > 0 || len(reports) < len(schools) {
			return fmt.Errorf("%d of %d schools were not ingested", len(schools)-len(reports)+failed, len(schools))
		}
		return nil
	},
}
