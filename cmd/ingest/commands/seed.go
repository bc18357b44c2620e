package commands

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/adapter/postgres"
	"github.com/user/rating-ingest/internal/entity"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

// mustSeed applies the schema and inserts catalog schools that are not in
// the table yet.
func mustSeed(ctx context.Context, pool *pgxpool.Pool, c entity.Catalog) {
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal("Could not apply schema", zap.Error(err))
	}
	inserted, err := postgres.NewSchoolRepo(pool).Seed(ctx, c)
	if err != nil {
		log.Fatal("Could not seed schools", zap.Error(err))
	}
	log.Info("Schools seeded", zap.Int64("inserted", inserted), zap.Int("catalog_size", len(c)))
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Creates the schema and seeds the schools table from the catalog file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		c := mustLoadCatalog()
		pool := mustConnectPostgres(ctx)
		defer pool.Close()
		mustSeed(ctx, pool, c)
	},
}
