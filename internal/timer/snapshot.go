package timer

import (
	"time"

	"github.com/tbueno/florarush/internal/models"
)

// Snapshot is the persisted timer-recovery state. Saved to the key-value
// store so an interrupted run can continue after a restart.
type Snapshot struct {
	Mode        models.GameMode `json:"mode"`
	StartedAt   time.Time       `json:"started_at"`
	PausedTotal float64         `json:"paused_total"`
	SavedAt     time.Time       `json:"saved_at"`
}

const snapshotMaxAge = time.Hour

// Snapshot captures the current run. ok is false when the timer is idle.
func (e *Engine) Snapshot() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Idle {
		return Snapshot{}, false
	}
	paused := e.pausedTotal
	if e.state == Paused {
		paused += e.clock.Now().Sub(e.pauseStart)
	}
	return Snapshot{
		Mode:        e.mode,
		StartedAt:   e.startTime,
		PausedTotal: paused.Seconds(),
		SavedAt:     e.clock.Now(),
	}, true
}

// Usable reports whether a saved snapshot is still worth restoring: recent
// enough, and not already past the mode's completion point.
func (s Snapshot) Usable(now time.Time) bool {
	if now.Sub(s.SavedAt) > snapshotMaxAge {
		return false
	}
	projected := now.Sub(s.StartedAt).Seconds() - s.PausedTotal
	if s.Mode == models.ModeBeatTheClock && projected >= models.BeatTheClockWindowSeconds {
		return false
	}
	return true
}

// Restore starts the timer from a saved snapshot, folding the downtime since
// the save into the paused total so elapsed time excludes it. No-op unless
// idle or the snapshot is unusable.
func (e *Engine) Restore(s Snapshot) bool {
	now := e.clock.Now()
	if !s.Usable(now) {
		e.log.Info("discarding unusable timer snapshot (mode=%s, saved=%v)", s.Mode, s.SavedAt)
		return false
	}

	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		e.log.Warn("restore ignored in state %s", e.state)
		return false
	}
	e.mu.Unlock()

	e.Start(s.Mode, s.StartedAt)

	e.mu.Lock()
	e.pausedTotal = time.Duration(s.PausedTotal*float64(time.Second)) + now.Sub(s.SavedAt)
	e.mu.Unlock()

	e.log.Info("timer restored: mode=%s, elapsed=%.2fs", s.Mode, e.Elapsed())
	return true
}
