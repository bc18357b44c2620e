package parquet_snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/pkg/utils"
)

const snapshotExt = ".parquet"

// snapshotRow is the on-disk layout. Column names match the snapshots the
// original scraper wrote so old files replay unchanged.
type snapshotRow struct {
	Name          *string  `parquet:"Name"`
	Department    *string  `parquet:"Department"`
	School        *string  `parquet:"School"`
	Quality       *float64 `parquet:"Quality"`
	TotalRatings  *int64   `parquet:"# of Ratings"`
	RetakePercent *float64 `parquet:"Would Take Again (%)"`
	Difficulty    *float64 `parquet:"Difficulty"`
}

// SnapshotRepoImpl stores one Parquet file per school under dir.
type SnapshotRepoImpl struct {
	dir string
}

// NewSnapshotRepo creates a new instance of SnapshotRepoImpl writing to dir.
func NewSnapshotRepo(dir string) *SnapshotRepoImpl {
	return &SnapshotRepoImpl{dir: dir}
}

// Save writes records to "<dir>/<school name>.parquet", replacing any earlier
// snapshot of the same school. The file is written under a temporary name and
// renamed so a crash never leaves a truncated snapshot behind.
func (r *SnapshotRepoImpl) Save(_ context.Context, schoolName string, records []entity.InstructorRecord) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(r.dir, utils.SnapshotFileName(schoolName))
	tmp := path + ".tmp"

	rows := make([]snapshotRow, len(records))
	for i, rec := range records {
		total := int64(rec.TotalRatings)
		rows[i] = snapshotRow{
			Name:          rec.Name,
			Department:    rec.Department,
			School:        rec.School,
			Quality:       rec.Quality,
			TotalRatings:  &total,
			RetakePercent: rec.RetakePercent,
			Difficulty:    rec.Difficulty,
		}
	}

	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish snapshot %s: %w", path, err)
	}
	return path, nil
}

// Load reads a snapshot back into records. A null rating count reads as 0.
func (r *SnapshotRepoImpl) Load(_ context.Context, path string) ([]entity.InstructorRecord, error) {
	rows, err := parquet.ReadFile[snapshotRow](path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	records := make([]entity.InstructorRecord, len(rows))
	for i, row := range rows {
		records[i] = entity.InstructorRecord{
			Name:          row.Name,
			Department:    row.Department,
			School:        row.School,
			Quality:       row.Quality,
			RetakePercent: row.RetakePercent,
			Difficulty:    row.Difficulty,
		}
		if row.TotalRatings != nil {
			records[i].TotalRatings = int(*row.TotalRatings)
		}
	}
	return records, nil
}

// List returns the .parquet files directly inside dir in name order.
// Directories and other files are skipped.
func (r *SnapshotRepoImpl) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), snapshotExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
