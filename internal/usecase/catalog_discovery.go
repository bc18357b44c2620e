package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/pkg/utils"
)

// placeholderSchoolName is what the site shows for ids that do not map to a
// real school.
const placeholderSchoolName = "other schools"

// SchoolNamer reads the school display name off a listing page.
type SchoolNamer interface {
	SchoolName(ctx context.Context, url string) (name string, ok bool, err error)
}

// CatalogDiscoverer builds an identity catalog by visiting the listing page
// of every id in a range.
type CatalogDiscoverer struct {
	baseURL string
	namer   SchoolNamer
	logger  *zap.Logger
}

func NewCatalogDiscoverer(baseURL string, namer SchoolNamer, logger *zap.Logger) *CatalogDiscoverer {
	return &CatalogDiscoverer{baseURL: baseURL, namer: namer, logger: logger}
}

// Discover visits ids in [from, to) and keeps the ones with a real school
// name. Pages that cannot be read are skipped.
func (d *CatalogDiscoverer) Discover(ctx context.Context, from, to int64) (entity.Catalog, error) {
	if from > to {
		return nil, fmt.Errorf("invalid id range [%d, %d)", from, to)
	}
	catalog := make(entity.Catalog)
	for id := from; id < to; id++ {
		if err := ctx.Err(); err != nil {
			return catalog, err
		}
		name, ok, err := d.namer.SchoolName(ctx, utils.ListingURL(d.baseURL, id))
		if err != nil {
			return catalog, fmt.Errorf("school %d: %w", id, err)
		}
		if !ok || name == placeholderSchoolName {
			d.logger.Debug("No school at id", zap.Int64("school_id", id))
			continue
		}
		catalog[id] = name
	}
	d.logger.Info("Catalog discovery finished",
		zap.Int64("from", from), zap.Int64("to", to), zap.Int("schools", len(catalog)))
	return catalog, nil
}
