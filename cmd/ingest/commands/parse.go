package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/adapter/parquet_snapshot"
	"github.com/user/rating-ingest/internal/extractor"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <html_file> <school_name>",
	Short: "Extracts records from a saved listing page and writes them as a snapshot.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parseListing(cmd.Context(), args[0], args[1])
	},
}

func parseListing(ctx context.Context, htmlPath, schoolName string) error {
	records, err := extractor.New(extractor.DefaultSignatures()).ParseFile(htmlPath)
	if err != nil {
		return fmt.Errorf("parse %s: %w", htmlPath, err)
	}
	path, err := parquet_snapshot.NewSnapshotRepo(cfg.SnapshotDir).Save(ctx, schoolName, records)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Info("Listing parsed", zap.String("source", htmlPath), zap.Int("records", len(records)), zap.String("snapshot", path))
	return nil
}
