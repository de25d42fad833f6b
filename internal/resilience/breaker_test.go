package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/resilience"
)

var errRemote = errors.New("remote down")

func failing(calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		return errRemote
	}
}

func succeeding(calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		return nil
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := clockwork.NewFakeClock()
	breaker := resilience.NewCircuitBreaker(clock, 3, time.Minute)
	ctx := context.Background()

	var calls int
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, breaker.Execute(ctx, failing(&calls)), errRemote)
	}
	assert.Equal(t, resilience.BreakerOpen, breaker.State())
	assert.Equal(t, 3, calls)

	// While open, calls fail fast without reaching the dependency.
	err := breaker.Execute(ctx, failing(&calls))
	require.Error(t, err)
	assert.True(t, apperrors.IsBreakerOpen(err))
	assert.Equal(t, 3, calls)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	clock := clockwork.NewFakeClock()
	breaker := resilience.NewCircuitBreaker(clock, 3, time.Minute)
	ctx := context.Background()

	var calls int
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	assert.NoError(t, breaker.Execute(ctx, succeeding(&calls)))
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))

	// Failures were never consecutive enough to trip it.
	assert.Equal(t, resilience.BreakerClosed, breaker.State())
}

func TestBreaker_HalfOpenTrialSucceeds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	breaker := resilience.NewCircuitBreaker(clock, 2, time.Minute)
	ctx := context.Background()

	var calls int
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	require.Equal(t, resilience.BreakerOpen, breaker.State())

	clock.Advance(time.Minute + time.Second)

	assert.NoError(t, breaker.Execute(ctx, succeeding(&calls)))
	assert.Equal(t, resilience.BreakerClosed, breaker.State())
}

func TestBreaker_HalfOpenTrialFails(t *testing.T) {
	clock := clockwork.NewFakeClock()
	breaker := resilience.NewCircuitBreaker(clock, 2, time.Minute)
	ctx := context.Background()

	var calls int
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))
	assert.Error(t, breaker.Execute(ctx, failing(&calls)))

	clock.Advance(time.Minute + time.Second)
	assert.ErrorIs(t, breaker.Execute(ctx, failing(&calls)), errRemote)
	assert.Equal(t, resilience.BreakerOpen, breaker.State())

	// The cooldown restarts from the failed trial.
	err := breaker.Execute(ctx, failing(&calls))
	require.Error(t, err)
	assert.True(t, apperrors.IsBreakerOpen(err))

	clock.Advance(time.Minute + time.Second)
	assert.NoError(t, breaker.Execute(ctx, succeeding(&calls)))
	assert.Equal(t, resilience.BreakerClosed, breaker.State())
}
