package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// retryAdapter retries failed completions. The pipeline itself never
// retries; wrapping the adapter is how a caller opts in.
type retryAdapter struct {
	Adapter
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// WithRetry wraps an adapter so each Complete is attempted up to attempts
// times with exponential backoff starting at delay. attempts <= 1 returns
// the adapter unchanged.
func WithRetry(a Adapter, attempts int, delay time.Duration, logger *slog.Logger) Adapter {
	if attempts <= 1 {
		return a
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryAdapter{Adapter: a, attempts: uint(attempts), delay: delay, logger: logger}
}

func (r *retryAdapter) Complete(ctx context.Context, req Request) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return r.Adapter.Complete(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("retrying completion", "adapter", r.Adapter.Name(), "attempt", n+1, "error", err)
		}),
	)
}

// rateLimitedAdapter spaces out requests to stay under a provider quota.
type rateLimitedAdapter struct {
	Adapter
	limiter *rate.Limiter
}

// WithRateLimit wraps an adapter so at most perSecond requests start each
// second. perSecond <= 0 returns the adapter unchanged.
func WithRateLimit(a Adapter, perSecond float64) Adapter {
	if perSecond <= 0 {
		return a
	}
	return &rateLimitedAdapter{Adapter: a, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (r *rateLimitedAdapter) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.Adapter.Complete(ctx, req)
}
