package timer_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbueno/florarush/internal/lifecycle"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/timer"
)

func newEngine(t *testing.T) (*timer.Engine, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return timer.NewEngine(clock, 100*time.Millisecond), clock
}

func TestElapsed_DerivedFromClock(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	clock.Advance(10 * time.Second)
	assert.InDelta(t, 10.0, engine.Elapsed(), 0.001)

	clock.Advance(2500 * time.Millisecond)
	assert.InDelta(t, 12.5, engine.Elapsed(), 0.001)
}

func TestElapsed_ExcludesPauses(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	clock.Advance(10 * time.Second)
	engine.Pause()
	assert.Equal(t, timer.Paused, engine.State())

	// The clock keeps moving; elapsed must not.
	clock.Advance(5 * time.Second)
	assert.InDelta(t, 10.0, engine.Elapsed(), 0.001)
	assert.InDelta(t, 5.0, engine.PausedTotal(), 0.001)

	engine.Resume()
	clock.Advance(3 * time.Second)
	assert.InDelta(t, 13.0, engine.Elapsed(), 0.001)
	assert.InDelta(t, 5.0, engine.PausedTotal(), 0.001)
}

func TestPauseResume_Idempotent(t *testing.T) {
	engine, clock := newEngine(t)

	// Control calls on an idle timer are no-ops.
	engine.Pause()
	engine.Resume()
	assert.Equal(t, timer.Idle, engine.State())

	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	engine.Pause()
	engine.Pause()
	clock.Advance(4 * time.Second)
	engine.Resume()
	engine.Resume()
	assert.InDelta(t, 4.0, engine.PausedTotal(), 0.001)
}

func TestStart_IgnoredWhileRunning(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	clock.Advance(5 * time.Second)
	engine.Start(models.ModeSpeedrun, clock.Now())
	assert.InDelta(t, 5.0, engine.Elapsed(), 0.001)
}

func TestStop_Resets(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	clock.Advance(5 * time.Second)
	engine.Stop()

	assert.Equal(t, timer.Idle, engine.State())
	assert.Zero(t, engine.Elapsed())
}

func TestBeatTheClock_ExpiresAtWindow(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeBeatTheClock, clock.Now())

	ticks := engine.Ticks()
	var last timer.Tick
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for tick := range ticks {
			last = tick
		}
	}()

	for i := 0; i < 601; i++ {
		clock.Advance(100 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}

	require.Eventually(t, func() bool { return engine.State() == timer.Idle }, 2*time.Second, 10*time.Millisecond,
		"timer must auto-stop once the window expires")
	<-collected

	assert.True(t, last.IsExpired)
	require.NotNil(t, last.TimeRemaining)
	assert.Zero(t, *last.TimeRemaining)
	assert.GreaterOrEqual(t, last.Elapsed, models.BeatTheClockWindowSeconds)
}

func TestSpeedrun_TicksHaveNoCountdown(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	ticks := engine.Ticks()
	var tick timer.Tick
	require.Eventually(t, func() bool {
		clock.Advance(100 * time.Millisecond)
		select {
		case tk := <-ticks:
			tick = tk
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond, "expected a tick")

	assert.Nil(t, tick.TimeRemaining)
	assert.False(t, tick.IsExpired)
}

func TestLifecycle_BackgroundFoldsIntoPaused(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	clock.Advance(10 * time.Second)
	engine.HandleLifecycle(lifecycle.EnteredBackground)
	assert.Equal(t, timer.Paused, engine.State())

	clock.Advance(30 * time.Second)
	engine.HandleLifecycle(lifecycle.EnteringForeground)
	assert.Equal(t, timer.Running, engine.State())

	assert.InDelta(t, 10.0, engine.Elapsed(), 0.001)
	assert.InDelta(t, 30.0, engine.PausedTotal(), 0.001)
}

func TestLifecycle_ForegroundKeepsUserPause(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	engine.Pause()
	clock.Advance(time.Second)
	engine.HandleLifecycle(lifecycle.EnteringForeground)

	// A pause the player asked for is not undone by the host environment.
	assert.Equal(t, timer.Paused, engine.State())
}

func TestConsume_AppliesSignalEvents(t *testing.T) {
	engine, clock := newEngine(t)
	engine.Start(models.ModeSpeedrun, clock.Now())
	defer engine.Stop()

	signal := lifecycle.NewChannelSignal()
	engine.Consume(signal)

	signal.Publish(lifecycle.EnteredBackground)
	require.Eventually(t, func() bool { return engine.State() == timer.Paused }, time.Second, 5*time.Millisecond)

	signal.Publish(lifecycle.EnteringForeground)
	require.Eventually(t, func() bool { return engine.State() == timer.Running }, time.Second, 5*time.Millisecond)
}
