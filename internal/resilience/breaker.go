package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker wraps calls to a flaky dependency. It opens after
// failureThreshold consecutive failures, rejects calls immediately while open,
// and lets exactly one trial call through once the cooldown has elapsed.
type CircuitBreaker struct {
	mu               sync.Mutex
	clock            clockwork.Clock
	failureThreshold int
	timeout          time.Duration
	state            BreakerState
	failures         int
	openedAt         time.Time
	trialInFlight    bool
	log              *logger.Logger
}

func NewCircuitBreaker(clock clockwork.Clock, failureThreshold int, timeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitBreaker{
		clock:            clock,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		state:            BreakerClosed,
		log:              logger.Default().WithPrefix("breaker"),
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs fn under the breaker. While open it fails fast with a
// breaker-open error; after the cooldown one caller performs the half-open
// trial while concurrent callers keep failing fast.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(err)
	return err
}

func (b *CircuitBreaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		elapsed := b.clock.Now().Sub(b.openedAt)
		if elapsed < b.timeout {
			return apperrors.NewBreakerOpenError((b.timeout - elapsed).Round(time.Second).String())
		}
		b.state = BreakerHalfOpen
		b.trialInFlight = true
		b.log.Info("circuit breaker half-open, allowing trial call")
		return nil
	case BreakerHalfOpen:
		if b.trialInFlight {
			return apperrors.NewBreakerOpenError("trial call in flight")
		}
		b.trialInFlight = true
		return nil
	}
	return nil
}

func (b *CircuitBreaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.trialInFlight = false
		if err != nil {
			b.state = BreakerOpen
			b.openedAt = b.clock.Now()
			b.log.Warn("trial call failed, circuit breaker re-opened: %v", err)
		} else {
			b.state = BreakerClosed
			b.failures = 0
			b.log.Info("trial call succeeded, circuit breaker closed")
		}
		return
	}

	if err != nil {
		b.failures++
		b.log.Debug("call failed (%d/%d): %v", b.failures, b.failureThreshold, err)
		if b.failures >= b.failureThreshold {
			b.state = BreakerOpen
			b.openedAt = b.clock.Now()
			b.log.Warn("failure threshold reached, circuit breaker opened for %v", b.timeout)
		}
		return
	}
	b.failures = 0
}
