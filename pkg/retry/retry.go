package retry

import (
	"context"
	"time"

	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Policy retries an operation with exponential backoff. Upstream sources
// throttle aggressively, so a RateLimitedError can override the computed
// backoff with a server-mandated wait, and a PermanentError (client-side
// mistakes, 4xx) stops retrying immediately.
type Policy struct {
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	log         *logger.Logger
}

// Config configures a retry policy
type Config struct {
	MaxAttempts int           // total attempts including the first (e.g. 3)
	Backoff     time.Duration // wait after the first failure (e.g. 5s)
	MaxBackoff  time.Duration // cap for the exponential growth (e.g. 5min)
}

// NewPolicy creates a retry policy with sensible defaults
func NewPolicy(cfg Config, log *logger.Logger) *Policy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	if log == nil {
		log = logger.Get()
	}
	return &Policy{
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		maxBackoff:  cfg.MaxBackoff,
		log:         log,
	}
}

// Do runs fn until it succeeds, returns a permanent error, exhausts the
// attempt budget, or ctx is canceled. The wait after failure n is
// backoff * 2^(n-1), capped at MaxBackoff.
func (p *Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			p.log.Warnw("Giving up without retry", "op", op, "error", perm.Err)
			return perm.Err
		}

		lastErr = err
		if attempt == p.maxAttempts {
			break
		}

		wait := p.waitFor(attempt)
		var rl *RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}

		p.log.Warnw("Retrying after failure",
			"op", op,
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return errors.Wrapf(lastErr, "%s failed after %d attempts", op, p.maxAttempts)
}

func (p *Policy) waitFor(failures int) time.Duration {
	wait := p.backoff
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= p.maxBackoff {
			return p.maxBackoff
		}
	}
	if wait > p.maxBackoff {
		return p.maxBackoff
	}
	return wait
}

// PermanentError marks an error as non-retryable
type PermanentError struct {
	Err error
}

// Error implements the error interface
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the policy stops retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RateLimitedError carries the wait the upstream asked for (Retry-After)
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *RateLimitedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *RateLimitedError) Unwrap() error {
	return e.Err
}

// RateLimited wraps err with a server-mandated retry delay
func RateLimited(err error, retryAfter time.Duration) error {
	if err == nil {
		return nil
	}
	return &RateLimitedError{RetryAfter: retryAfter, Err: err}
}
