package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-creds/config"
)

// retrier hands out capped exponential backoff delays and counts retries.
type retrier struct {
	cfg     *config.Config
	metrics *Metrics

	mu           sync.Mutex
	totalRetries int
}

func newRetrier(cfg *config.Config, metrics *Metrics) *retrier {
	return &retrier{
		cfg:     cfg,
		metrics: metrics,
	}
}

// Next returns the delay before retry number attempt, or false once the
// configured retries are used up.
func (r *retrier) Next(attempt int) (time.Duration, bool) {
	if attempt > r.cfg.MaxRetries {
		return 0, false
	}

	r.mu.Lock()
	r.totalRetries++
	r.mu.Unlock()
	r.metrics.IncRetries()

	return r.backoff(attempt), true
}

func (r *retrier) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := r.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := r.cfg.RetryBackoffMax; max > 0 && (delay > max || delay <= 0) {
		delay = max
	}
	return delay
}

func (r *retrier) TotalRetries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalRetries
}

func isRetryable(err error) bool {
	var timeout ErrTimeout
	var conn ErrConnection
	var rateLimited ErrRateLimited
	var server ErrServerError
	return errors.As(err, &timeout) ||
		errors.As(err, &conn) ||
		errors.As(err, &rateLimited) ||
		errors.As(err, &server)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
