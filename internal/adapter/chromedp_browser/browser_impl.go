package chromedp_browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/repository"
)

// Options configures the browser process and the bound on every single DOM
// operation issued through a tab.
type Options struct {
	Headless        bool
	UserAgent       string
	NavigateTimeout time.Duration
	OpTimeout       time.Duration
}

const (
	defaultNavigateTimeout = 30 * time.Second
	defaultOpTimeout       = 2 * time.Second
)

type ChromedpBrowser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	opts          Options
	logger        *zap.Logger
	closeOnce     sync.Once
	closeErr      error
}

// NewChromedpBrowser starts a Chrome process. The caller owns it and must
// call Close.
func NewChromedpBrowser(opts Options, logger *zap.Logger) (*ChromedpBrowser, error) {
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = defaultNavigateTimeout
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return start(allocCtx, allocCancel, opts, logger)
}

// start attaches to the browser behind allocCtx and takes ownership of
// allocCancel.
func start(allocCtx context.Context, allocCancel context.CancelFunc, opts Options, logger *zap.Logger) (*ChromedpBrowser, error) {
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	// Run with no actions launches the process, so a missing binary fails here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	logger.Info("browser started", zap.Bool("headless", opts.Headless))

	return &ChromedpBrowser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		opts:          opts,
		logger:        logger,
	}, nil
}

// NewTab opens a new page target in the running browser. Opening is bounded
// by NavigateTimeout and by ctx.
func (b *ChromedpBrowser) NewTab(ctx context.Context) (repository.Tab, error) {
	if err := b.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("browser closed: %w", err)
	}
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	// The first Run attaches the target and runs its event loop on tabCtx
	// itself, so it must not see a derived deadline. The bound cancels the
	// whole tab from outside instead.
	timer := time.AfterFunc(b.opts.NavigateTimeout, tabCancel)
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	if !timer.Stop() && err == nil {
		err = fmt.Errorf("no response within %s", b.opts.NavigateTimeout)
	}
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromedpTab{ctx: tabCtx, cancel: tabCancel, opts: b.opts}, nil
}

// Close shuts the browser down and kills the process. Safe to call twice.
func (b *ChromedpBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.browserCtx)
		b.browserCancel()
		b.allocCancel()
		b.logger.Info("browser stopped")
	})
	return b.closeErr
}

type chromedpTab struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
}

func (t *chromedpTab) Navigate(ctx context.Context, url string) error {
	if err := runBounded(ctx, t.ctx, t.opts.NavigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	return nil
}

func (t *chromedpTab) Text(ctx context.Context, sel repository.Selector) (string, error) {
	var res textResult
	if err := runBounded(ctx, t.ctx, t.opts.OpTimeout, evaluate(textScript(sel), &res)); err != nil {
		return "", err
	}
	if !res.Found {
		return "", repository.ErrElementNotFound
	}
	return res.Text, nil
}

// Click clicks the first match once it is rendered and enabled. A match that
// is not clickable yet counts as not found.
func (t *chromedpTab) Click(ctx context.Context, sel repository.Selector) error {
	var outcome string
	if err := runBounded(ctx, t.ctx, t.opts.OpTimeout, evaluate(clickScript(sel), &outcome)); err != nil {
		return err
	}
	switch outcome {
	case clickDone:
		return nil
	case clickMissing:
		return repository.ErrElementNotFound
	default:
		return fmt.Errorf("%w: %s is %s", repository.ErrElementNotFound, sel.Value, outcome)
	}
}

func (t *chromedpTab) Count(ctx context.Context, sel repository.Selector) (int, error) {
	var n int
	if err := runBounded(ctx, t.ctx, t.opts.OpTimeout, evaluate(countScript(sel), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *chromedpTab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := runBounded(ctx, t.ctx, t.opts.NavigateTimeout, evaluate(htmlScript, &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Close closes the page target.
func (t *chromedpTab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	return err
}

// runBounded runs actions on the chromedp target context with a timeout and
// also stops when the caller's ctx is done. Cancelling the derived context
// aborts the actions only; the target stays open.
func runBounded(ctx, target context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(target, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

// evaluate runs a page script without reporting its exceptions to the page
// console or pausing on them.
func evaluate(script string, res any) chromedp.Action {
	return chromedp.Evaluate(script, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithSilent(true)
	})
}
