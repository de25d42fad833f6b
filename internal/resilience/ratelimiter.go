package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
)

// RateLimiter throttles outbound calls to a minimum inter-request interval and
// a rolling daily quota. The daily counter resets at the local-day boundary.
type RateLimiter struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	minInterval time.Duration
	maxPerDay   int
	lastRequest time.Time
	dayCount    int
	dayStart    time.Time
	log         *logger.Logger
}

// NewRateLimiter builds a limiter allowing maxPerSecond requests per second
// and maxPerDay per local day.
func NewRateLimiter(clock clockwork.Clock, maxPerSecond float64, maxPerDay int) *RateLimiter {
	if maxPerSecond <= 0 {
		maxPerSecond = 1
	}
	return &RateLimiter{
		clock:       clock,
		minInterval: time.Duration(float64(time.Second) / maxPerSecond),
		maxPerDay:   maxPerDay,
		log:         logger.Default().WithPrefix("ratelimiter"),
	}
}

// WaitIfNeeded blocks the caller until the inter-request interval has elapsed,
// or fails immediately once the daily cap is hit. It never silently drops a
// request.
func (r *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	r.mu.Lock()

	now := r.clock.Now()
	dayStart := startOfDay(now)
	if !dayStart.Equal(r.dayStart) {
		if r.dayCount > 0 {
			r.log.Info("daily quota reset (%d requests used yesterday)", r.dayCount)
		}
		r.dayStart = dayStart
		r.dayCount = 0
	}

	if r.maxPerDay > 0 && r.dayCount >= r.maxPerDay {
		r.mu.Unlock()
		r.log.Warn("daily quota exhausted: %d requests", r.maxPerDay)
		return apperrors.NewQuotaExceededError(fmt.Sprintf("daily request quota of %d reached", r.maxPerDay))
	}

	var wait time.Duration
	if !r.lastRequest.IsZero() {
		if since := now.Sub(r.lastRequest); since < r.minInterval {
			wait = r.minInterval - since
		}
	}
	// Claim the pacing slot before releasing the lock so concurrent callers
	// queue behind this request rather than racing it.
	r.lastRequest = now.Add(wait)
	r.dayCount++
	r.mu.Unlock()

	if wait > 0 {
		r.log.Debug("rate limit pacing: waiting %v", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(wait):
		}
	}
	return nil
}

// RemainingToday returns how many requests the daily quota still allows.
func (r *RateLimiter) RemainingToday() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxPerDay <= 0 {
		return -1
	}
	if !startOfDay(r.clock.Now()).Equal(r.dayStart) {
		return r.maxPerDay
	}
	left := r.maxPerDay - r.dayCount
	if left < 0 {
		left = 0
	}
	return left
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
