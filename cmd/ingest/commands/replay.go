package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/adapter/parquet_snapshot"
	"github.com/user/rating-ingest/internal/adapter/postgres"
	"github.com/user/rating-ingest/internal/usecase"
)

func init() {
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay [dir]",
	Short: "Loads every Parquet snapshot in dir into the database without scraping.",
	Long:  "Loads every Parquet snapshot in dir into the database without scraping. dir defaults to SNAPSHOT_DIR.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir := cfg.SnapshotDir
		if len(args) == 1 {
			dir = args[0]
		}

		pool := mustConnectPostgres(ctx)
		defer pool.Close()

		replayer := usecase.NewReplayer(
			parquet_snapshot.NewSnapshotRepo(cfg.SnapshotDir),
			usecase.NewBatchLoader(postgres.NewIngestStore(pool), log, sharedMetrics()),
			log,
		)
		results, err := replayer.ReplayDir(ctx, dir)
		if err != nil {
			return err
		}

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				continue
			}
			log.Info("Snapshot replayed",
				zap.String("path", res.Path),
				zap.Int64("inserted", res.Load.Inserted),
				zap.Int("skipped", len(res.Load.Skipped)),
			)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d snapshots failed to load", failed, len(results))
		}
		return nil
	},
}
