package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/forecast-sync/internal/weather"
)

// RateLimitedFetcher wraps a Fetcher with a token bucket so bursts of manual
// triggers cannot exhaust the upstream quota.
type RateLimitedFetcher struct {
	fetcher weather.Fetcher
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedFetcher allows perMinute requests per minute with the given burst.
func NewRateLimitedFetcher(fetcher weather.Fetcher, perMinute float64, burst int) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", fetcher.Name()),
	}
}

func (r *RateLimitedFetcher) Name() string {
	return r.name
}

// Fetch waits for a token or for ctx to end, then forwards to the wrapped fetcher.
func (r *RateLimitedFetcher) Fetch(ctx context.Context, q weather.Query) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", weather.ErrNetwork, err)
	}
	return r.fetcher.Fetch(ctx, q)
}

var _ weather.Fetcher = (*RateLimitedFetcher)(nil)
