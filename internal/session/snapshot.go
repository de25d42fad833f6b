package session

import (
	"context"
	"errors"
	"time"

	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/timer"
)

const (
	activeSessionKey = "session:active"
	timerRecoveryKey = "timer:recovery"
	snapshotMaxAge   = time.Hour
)

// saveSnapshotsLocked persists the active session and timer state to the
// key-value store so an interrupted run can be offered for resume after a
// restart. Failures are logged and swallowed.
func (m *Machine) saveSnapshotsLocked(ctx context.Context) {
	if err := m.deps.KV.SetJSON(ctx, activeSessionKey, m.session); err != nil {
		m.log.Warn("failed to save session snapshot: %v", err)
	}
	if snap, ok := m.deps.Timer.Snapshot(); ok {
		if err := m.deps.KV.SetJSON(ctx, timerRecoveryKey, snap); err != nil {
			m.log.Warn("failed to save timer snapshot: %v", err)
		}
	}
}

func (m *Machine) clearSnapshots(ctx context.Context) {
	if err := m.deps.KV.Delete(ctx, activeSessionKey); err != nil {
		m.log.Warn("failed to clear session snapshot: %v", err)
	}
	if err := m.deps.KV.Delete(ctx, timerRecoveryKey); err != nil {
		m.log.Warn("failed to clear timer snapshot: %v", err)
	}
}

// RestoreActive loads a saved session snapshot and resumes it in paused
// state. Snapshots older than an hour, or whose timer recovery is no longer
// usable, are discarded. Returns false when there is nothing to restore.
func (m *Machine) RestoreActive(ctx context.Context) (bool, error) {
	var saved models.GameSession
	savedAt, err := m.deps.KV.GetJSON(ctx, activeSessionKey, &saved)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := m.deps.Clock.Now()
	if now.Sub(savedAt) > snapshotMaxAge {
		m.log.Info("discarding stale session snapshot from %v", savedAt)
		m.clearSnapshots(ctx)
		return false, nil
	}

	var timerSnap timer.Snapshot
	if _, err := m.deps.KV.GetJSON(ctx, timerRecoveryKey, &timerSnap); err != nil {
		m.log.Info("no usable timer recovery state, discarding session snapshot")
		m.clearSnapshots(ctx)
		return false, nil
	}
	if !m.deps.Timer.Restore(timerSnap) {
		m.clearSnapshots(ctx)
		return false, nil
	}

	m.mu.Lock()
	m.session = saved
	m.session.State = models.SessionActive
	m.pending = nil
	m.mu.Unlock()

	// Leave the restored session paused; the player resumes explicitly.
	if err := m.Pause(ctx); err != nil {
		return false, err
	}
	m.log.Info("session restored: id=%s, answered=%d", saved.ID, saved.QuestionsAnswered())
	return true, nil
}
