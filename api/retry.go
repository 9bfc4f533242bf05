package api

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

// Retry defaults. VK allows three requests per second per user, so the
// delay waits out one slot.
const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 333 * time.Millisecond
)

// Retrier runs units of work and retries the ones that failed with a
// retryable kind (rate limit or timeout) a bounded number of times.
type Retrier struct {
	maxAttempts uint
	delay       time.Duration
	logger      zerolog.Logger
}

// RetryOption configures a Retrier.
type RetryOption func(*Retrier)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(attempts int) RetryOption {
	return func(r *Retrier) {
		if attempts > 0 {
			r.maxAttempts = uint(attempts)
		}
	}
}

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(delay time.Duration) RetryOption {
	return func(r *Retrier) {
		if delay >= 0 {
			r.delay = delay
		}
	}
}

// WithRetryLogger sets the logger used to report retries.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// NewRetrier creates a Retrier with the default policy
func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultRetryDelay,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt cap
func (r *Retrier) MaxAttempts() int {
	return int(r.maxAttempts)
}

// Do runs fn and returns its value, or the zero value and a classified *Error.
// Rate-limit and timeout failures are retried with a fixed delay until the
// attempt cap or ctx ends the loop; the last of them is then returned.
// Every other failure is returned after the first attempt.
func Do[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	if r == nil {
		r = NewRetrier()
	}

	var (
		result T
		last   *Error
	)

	err := retry.Do(
		func() error {
			value, err := fn(ctx)
			if err != nil {
				last = Classify(err)
				return last
			}
			result = value
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.maxAttempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return KindOf(err).Retryable()
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn().
				Uint("attempt", n+1).
				Uint("max_attempts", r.maxAttempts).
				Str("kind", KindOf(err).String()).
				Msg("Too many requests or response timed out, retrying")
		}),
	)
	if err == nil {
		return result, nil
	}

	var zero T
	if last != nil {
		return zero, last
	}
	return zero, Classify(err)
}
