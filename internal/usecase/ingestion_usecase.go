package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/metrics"
	"github.com/user/rating-ingest/pkg/utils"
)

var ErrIngestionFailed = errors.New("ingestion failed")

// Fetcher returns the fully expanded markup of a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// RecordExtractor turns listing markup into instructor records.
type RecordExtractor interface {
	Records(html string) (iter.Seq[entity.InstructorRecord], error)
}

// Loader commits one table of records.
type Loader interface {
	Load(ctx context.Context, records []entity.InstructorRecord) (*entity.LoadResult, error)
}

// Ingester runs the whole pipeline for schools.
type Ingester interface {
	Ingest(ctx context.Context, school entity.School) (*entity.IngestionReport, error)
	IngestAll(ctx context.Context, schools []entity.School) []*entity.IngestionReport
}

type ingestionUseCase struct {
	baseURL   string
	fetcher   Fetcher
	extractor RecordExtractor
	loader    Loader
	snapshots repository.SnapshotRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewIngestionUseCase wires the pipeline. snapshots may be nil to skip
// writing columnar snapshots.
func NewIngestionUseCase(
	baseURL string,
	fetcher Fetcher,
	extractor RecordExtractor,
	loader Loader,
	snapshots repository.SnapshotRepository,
	logger *zap.Logger,
	m *metrics.Metrics,
) Ingester {
	return &ingestionUseCase{
		baseURL:   baseURL,
		fetcher:   fetcher,
		extractor: extractor,
		loader:    loader,
		snapshots: snapshots,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Ingest scrapes one school's listing, snapshots the extracted table and loads
// it. The returned report is filled in as far as the run got, even on error.
func (uc *ingestionUseCase) Ingest(ctx context.Context, school entity.School) (*entity.IngestionReport, error) {
	report := &entity.IngestionReport{
		SchoolID:   school.ID,
		SchoolName: school.Name,
		URL:        utils.ListingURL(uc.baseURL, school.ID),
		StartedAt:  uc.now(),
	}
	log := uc.logger.With(zap.Int64("school_id", school.ID), zap.String("school", school.Name))
	log.Info("Starting ingestion", zap.String("url", report.URL))

	err := uc.run(ctx, report, log)

	report.FinishedAt = uc.now()
	uc.metrics.IngestionDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	if err != nil {
		uc.metrics.IngestionsTotal.WithLabelValues("failure").Inc()
		report.Err = fmt.Errorf("%w: school %d: %w", ErrIngestionFailed, school.ID, err)
		log.Error("Ingestion failed", zap.Error(err))
		return report, report.Err
	}
	uc.metrics.IngestionsTotal.WithLabelValues("success").Inc()
	log.Info("Ingestion finished",
		zap.Int("records", report.Records),
		zap.Int64("inserted", report.Load.Inserted),
		zap.Int("skipped", len(report.Load.Skipped)),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (uc *ingestionUseCase) run(ctx context.Context, report *entity.IngestionReport, log *zap.Logger) error {
	html, err := uc.fetcher.Fetch(ctx, report.URL)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	seq, err := uc.extractor.Records(html)
	if err != nil {
		return fmt.Errorf("extract records: %w", err)
	}
	records := make([]entity.InstructorRecord, 0)
	for rec := range seq {
		records = append(records, rec)
	}
	report.Records = len(records)
	uc.metrics.RecordsExtracted.Add(float64(len(records)))

	if uc.snapshots != nil {
		path, err := uc.snapshots.Save(ctx, report.SchoolName, records)
		if err != nil {
			uc.metrics.SnapshotFailures.Inc()
			log.Warn("Failed to write snapshot", zap.Error(err))
		} else {
			report.SnapshotPath = path
		}
	}

	result, err := uc.loader.Load(ctx, records)
	if err != nil {
		return err
	}
	report.Load = result
	return nil
}

// IngestAll runs schools one at a time. A failing school is recorded in its
// report and never stops the rest; only a done ctx ends the run early.
func (uc *ingestionUseCase) IngestAll(ctx context.Context, schools []entity.School) []*entity.IngestionReport {
	reports := make([]*entity.IngestionReport, 0, len(schools))
	for _, school := range schools {
		if ctx.Err() != nil {
			uc.logger.Warn("Run cancelled, skipping remaining schools", zap.Int("remaining", len(schools)-len(reports)))
			break
		}
		report, _ := uc.Ingest(ctx, school)
		reports = append(reports, report)
	}
	return reports
}
