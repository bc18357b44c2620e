package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/metrics"
	"github.com/user/rating-ingest/pkg/retry"
)

// DefaultPageBatchSize is how many cards the listing reveals per "Show More"
// click. Observed behaviour of the site, so it stays configurable.
const DefaultPageBatchSize = 8

// ListingSelectors locate the dynamic parts of a listing page.
type ListingSelectors struct {
	Header   repository.Selector
	ShowMore repository.Selector
	Card     repository.Selector
}

func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Header:   repository.Selector{Value: `h1[data-testid="pagination-header-main-results"]`, Kind: repository.ByQuery},
		ShowMore: repository.Selector{Value: `//button[contains(text(), 'Show More')]`, Kind: repository.ByXPath},
		Card:     repository.Selector{Value: `a[class*="TeacherCard__StyledTeacherCard"]`, Kind: repository.ByQuery},
	}
}

type PageLoaderConfig struct {
	PageBatchSize  int
	HeaderTimeout  time.Duration
	ButtonTimeout  time.Duration
	ContentTimeout time.Duration
	PollInterval   time.Duration
	Selectors      ListingSelectors

	// Clock and NewTimer drive every wait. Nil means wall clock.
	Clock    retry.Clock
	NewTimer func() retry.Timer
}

// PageLoader expands paginated listing pages in a browser it owns
// exclusively. It is not safe for concurrent use.
type PageLoader struct {
	browser repository.Browser
	cfg     PageLoaderConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewPageLoader(browser repository.Browser, cfg PageLoaderConfig, logger *zap.Logger, m *metrics.Metrics) *PageLoader {
	if cfg.PageBatchSize <= 0 {
		cfg.PageBatchSize = DefaultPageBatchSize
	}
	if cfg.Selectors == (ListingSelectors{}) {
		cfg.Selectors = DefaultListingSelectors()
	}
	return &PageLoader{browser: browser, cfg: cfg, logger: logger, metrics: m}
}

// Close shuts down the browser.
func (l *PageLoader) Close() error {
	return l.browser.Close()
}

// Fetch navigates to url, clicks "Show More" until the advertised number of
// records is on the page or the control goes away, and returns the page
// markup. Navigation and wait failures degrade to a partial or empty result;
// only failing to open a tab is returned as an error.
func (l *PageLoader) Fetch(ctx context.Context, url string) (string, error) {
	tab, err := l.browser.NewTab(ctx)
	if err != nil {
		return "", fmt.Errorf("open browser tab: %w", err)
	}
	defer l.closeTab(tab, url)

	if err := tab.Navigate(ctx, url); err != nil {
		l.logger.Warn("Navigation failed, returning empty listing", zap.String("url", url), zap.Error(err))
		return "", nil
	}

	total := l.totalRecords(ctx, tab, url)
	required := l.requiredClicks(total)
	clicks := l.expand(ctx, tab, url, required)
	l.metrics.ExpansionClicks.Observe(float64(clicks))

	html, err := tab.HTML(ctx)
	if err != nil {
		l.logger.Warn("Could not read page markup", zap.String("url", url), zap.Error(err))
		return "", nil
	}

	l.logger.Info("Listing page loaded",
		zap.String("url", url),
		zap.Int("advertised", total),
		zap.Int("clicks", clicks),
		zap.Int("required_clicks", required),
	)
	return html, nil
}

// SchoolName reads the school display name from the results header of a
// listing page. ok is false when the page has no usable header.
func (l *PageLoader) SchoolName(ctx context.Context, url string) (name string, ok bool, err error) {
	tab, err := l.browser.NewTab(ctx)
	if err != nil {
		return "", false, fmt.Errorf("open browser tab: %w", err)
	}
	defer l.closeTab(tab, url)

	if err := tab.Navigate(ctx, url); err != nil {
		l.logger.Debug("Navigation failed", zap.String("url", url), zap.Error(err))
		return "", false, nil
	}

	var header string
	err = l.poll(ctx, l.cfg.HeaderTimeout, func(ctx context.Context) (bool, error) {
		text, err := tab.Text(ctx, l.cfg.Selectors.Header)
		if errors.Is(err, repository.ErrElementNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		header = text
		return true, nil
	})
	if err != nil {
		return "", false, nil
	}
	name = SchoolNameFromHeader(header)
	return name, name != "", nil
}

// totalRecords waits for the results header and returns its leading count,
// or 0 when it never shows up.
func (l *PageLoader) totalRecords(ctx context.Context, tab repository.Tab, url string) int {
	var total int
	err := l.poll(ctx, l.cfg.HeaderTimeout, func(ctx context.Context) (bool, error) {
		text, err := tab.Text(ctx, l.cfg.Selectors.Header)
		if errors.Is(err, repository.ErrElementNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		n, ok := LeadingCount(text)
		if !ok {
			return false, nil
		}
		total = n
		return true, nil
	})
	if err != nil {
		l.logger.Warn("Failed to read total record count, assuming 0", zap.String("url", url), zap.Error(err))
		return 0
	}
	return total
}

func (l *PageLoader) requiredClicks(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + l.cfg.PageBatchSize - 1) / l.cfg.PageBatchSize
}

// expand clicks "Show More" up to required times and returns how many clicks
// were made.
func (l *PageLoader) expand(ctx context.Context, tab repository.Tab, url string, required int) int {
	for i := range required {
		before, err := tab.Count(ctx, l.cfg.Selectors.Card)
		if err != nil {
			before = 0
		}

		err = l.poll(ctx, l.cfg.ButtonTimeout, func(ctx context.Context) (bool, error) {
			err := tab.Click(ctx, l.cfg.Selectors.ShowMore)
			if errors.Is(err, repository.ErrElementNotFound) {
				return false, nil
			}
			return err == nil, err
		})
		if err != nil {
			l.logger.Info("Load-more control unavailable, stopping early",
				zap.String("url", url), zap.Int("clicks", i), zap.Int("required_clicks", required), zap.Error(err))
			return i
		}

		err = l.poll(ctx, l.cfg.ContentTimeout, func(ctx context.Context) (bool, error) {
			n, err := tab.Count(ctx, l.cfg.Selectors.Card)
			return n > before, err
		})
		if err != nil {
			l.logger.Info("No new cards after load-more, stopping early",
				zap.String("url", url), zap.Int("clicks", i+1), zap.Int("required_clicks", required), zap.Error(err))
			return i + 1
		}
	}
	return required
}

func (l *PageLoader) poll(ctx context.Context, timeout time.Duration, cond retry.Condition) error {
	opts := retry.Options{Interval: l.cfg.PollInterval, Timeout: timeout, Clock: l.cfg.Clock}
	if l.cfg.NewTimer != nil {
		opts.Timer = l.cfg.NewTimer()
	}
	return retry.Poll(ctx, opts, cond)
}

func (l *PageLoader) closeTab(tab repository.Tab, url string) {
	if err := tab.Close(); err != nil {
		l.logger.Warn("Failed to close browser tab", zap.String("url", url), zap.Error(err))
	}
}

// LeadingCount parses the number at the start of a results header such as
// "1,234 professors at X" or "0 professors found".
func LeadingCount(header string) (int, bool) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SchoolNameFromHeader returns everything after the third word of a results
// header, e.g. "1234 professors at University of Denver".
func SchoolNameFromHeader(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return ""
	}
	return strings.Join(fields[3:], " ")
}
