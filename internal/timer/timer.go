package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tbueno/florarush/internal/lifecycle"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
)

// State is the timer lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Tick is one elapsed-time update.
type Tick struct {
	Elapsed       float64  // net seconds since start, excluding pauses
	TimeRemaining *float64 // Beat the Clock countdown, nil for Speedrun
	IsExpired     bool
	PausedTotal   float64
}

// A lifecycle gap longer than this is treated as a suspension and folded
// entirely into the paused total.
const suspensionGapThreshold = 2 * time.Second

// Engine produces a drift-compensated elapsed-time signal on a fixed cadence.
// All control operations are serialized against a single mutex; ticks in
// flight when a pause lands are discarded rather than delivered late.
type Engine struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	interval    time.Duration
	state       State
	mode        models.GameMode
	startTime   time.Time
	pausedTotal time.Duration
	pauseStart  time.Time
	suspendedAt time.Time
	pausedBySys bool
	ticks       chan Tick
	stop        chan struct{}
	log         *logger.Logger
}

func NewEngine(clock clockwork.Clock, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Engine{
		clock:    clock,
		interval: interval,
		state:    Idle,
		log:      logger.Default().WithPrefix("timer"),
	}
}

// Start transitions to running and begins emitting ticks. No-op unless idle.
func (e *Engine) Start(mode models.GameMode, startTime time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle {
		e.log.Warn("start ignored in state %s", e.state)
		return
	}
	e.mode = mode
	e.startTime = startTime
	e.pausedTotal = 0
	e.pauseStart = time.Time{}
	e.suspendedAt = time.Time{}
	e.pausedBySys = false
	e.state = Running
	e.ticks = make(chan Tick, 8)
	e.stop = make(chan struct{})

	e.log.Info("timer started: mode=%s", mode)
	go e.run(e.ticks, e.stop)
}

// Ticks returns the tick channel for the current run. Closed on stop.
func (e *Engine) Ticks() <-chan Tick {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// State returns the current timer state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pause halts ticks. No-op unless running.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked(false)
}

func (e *Engine) pauseLocked(bySystem bool) {
	if e.state != Running {
		return
	}
	e.state = Paused
	e.pauseStart = e.clock.Now()
	e.pausedBySys = bySystem
	e.log.Debug("timer paused at elapsed=%.2fs", e.elapsedLocked().Seconds())
}

// Resume adds the pause gap to the paused total and resumes ticks. No-op
// unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumeLocked()
}

func (e *Engine) resumeLocked() {
	if e.state != Paused {
		return
	}
	gap := e.clock.Now().Sub(e.pauseStart)
	e.pausedTotal += gap
	e.pauseStart = time.Time{}
	e.pausedBySys = false
	e.state = Running
	e.log.Debug("timer resumed, pause added %.2fs (total paused %.2fs)", gap.Seconds(), e.pausedTotal.Seconds())
}

// Stop resets all fields to idle and closes the tick channel.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.state == Idle {
		return
	}
	e.state = Idle
	close(e.stop)
	e.stop = nil
	e.startTime = time.Time{}
	e.pausedTotal = 0
	e.pauseStart = time.Time{}
	e.suspendedAt = time.Time{}
	e.log.Info("timer stopped")
}

// Elapsed returns net elapsed seconds: frozen while paused, wall-clock based
// while running.
func (e *Engine) Elapsed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked().Seconds()
}

// PausedTotal returns cumulative paused seconds, including the current pause.
func (e *Engine) PausedTotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.pausedTotal
	if e.state == Paused {
		total += e.clock.Now().Sub(e.pauseStart)
	}
	return total.Seconds()
}

func (e *Engine) elapsedLocked() time.Duration {
	if e.state == Idle {
		return 0
	}
	referenceNow := e.clock.Now()
	if e.state == Paused {
		referenceNow = e.pauseStart
	}
	elapsed := referenceNow.Sub(e.startTime) - e.pausedTotal
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// HandleLifecycle consumes one foreground/background event. Backgrounding
// pauses the timer so suspended wall-clock time lands in pausedTotal instead
// of elapsed; foregrounding un-pauses only if the system initiated the pause.
func (e *Engine) HandleLifecycle(event lifecycle.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch event {
	case lifecycle.EnteredBackground:
		if e.state == Running {
			e.suspendedAt = e.clock.Now()
			e.pauseLocked(true)
			e.log.Info("suspended by background transition")
		}
	case lifecycle.EnteringForeground:
		if e.state == Paused && e.pausedBySys {
			gap := e.clock.Now().Sub(e.suspendedAt)
			if gap > suspensionGapThreshold {
				e.log.Info("foregrounded after %.1fs suspension, folding gap into paused total", gap.Seconds())
			}
			e.suspendedAt = time.Time{}
			e.resumeLocked()
		}
	}
}

// Consume applies lifecycle events from the signal until the channel closes.
func (e *Engine) Consume(signal lifecycle.Signal) {
	go func() {
		for event := range signal.Events() {
			e.HandleLifecycle(event)
		}
	}()
}

func (e *Engine) run(ticks chan Tick, stop chan struct{}) {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(ticks)

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			tick, emit, expired := e.onTick()
			if emit {
				// Never block the timer source on a slow consumer.
				select {
				case ticks <- tick:
				default:
				}
			}
			if expired {
				e.Stop()
				return
			}
		}
	}
}

func (e *Engine) onTick() (Tick, bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Running {
		return Tick{}, false, false
	}

	elapsed := e.elapsedLocked().Seconds()
	tick := Tick{
		Elapsed:     elapsed,
		PausedTotal: e.pausedTotal.Seconds(),
	}

	if e.mode == models.ModeBeatTheClock {
		remaining := models.BeatTheClockWindowSeconds - elapsed
		if remaining < 0 {
			remaining = 0
		}
		tick.TimeRemaining = &remaining
		if elapsed >= models.BeatTheClockWindowSeconds {
			tick.IsExpired = true
			return tick, true, true
		}
	}
	return tick, true, false
}
