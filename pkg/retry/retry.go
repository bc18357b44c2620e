// Package retry provides a bounded wait-and-recheck primitive for conditions
// that become true asynchronously, such as content rendered by a browser.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by Poll when the condition did not hold before the
// timeout elapsed.
var ErrTimeout = errors.New("retry: condition not met before timeout")

var errNotYet = errors.New("retry: condition not met")

// Clock reports the current time. It matches backoff.Clock.
type Clock interface {
	Now() time.Time
}

// Timer is a restartable timer. It matches backoff.Timer.
type Timer interface {
	Start(d time.Duration)
	Stop()
	C() <-chan time.Time
}

// Options bounds one Poll call. Zero values fall back to the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
	Timer    Timer
}

const (
	DefaultInterval = 250 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// Condition is checked once per attempt. Returning an error wrapped with
// Permanent stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Poll checks cond until it reports true, a permanent error occurs, ctx is
// done, or opts.Timeout has elapsed on opts.Clock. The first attempt happens
// immediately. Transient errors from cond are retried like a false result and
// the last one is wrapped into the returned ErrTimeout.
func Poll(ctx context.Context, opts Options, cond Condition) error {
	opts = opts.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Interval
	b.MaxInterval = opts.Interval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = opts.Timeout
	b.Clock = opts.Clock

	var lastErr, permanentErr error
	operation := func() error {
		ok, err := cond(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				permanentErr = perm.Err
				return err
			}
			lastErr = err
			return err
		}
		if !ok {
			lastErr = nil
			return errNotYet
		}
		return nil
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(b, ctx), nil, opts.Timer)
	if err == nil {
		return nil
	}
	if permanentErr != nil {
		return permanentErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, lastErr)
	}
	return ErrTimeout
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Clock == nil {
		o.Clock = backoff.SystemClock
	}
	return o
}
