package session

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tbueno/florarush/internal/anticheat"
	"github.com/tbueno/florarush/internal/cache"
	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/records"
	"github.com/tbueno/florarush/internal/repository"
	"github.com/tbueno/florarush/internal/scoring"
	"github.com/tbueno/florarush/internal/timer"
)

const (
	optionCount      = 4
	candidatePoolMin = 8
	leaderboardKeep  = 25
	historyCap       = 100
)

// Result is the completion snapshot handed back to the caller: the final
// session, its mode-specific score, the trophy reward, and the advisory
// anti-cheat screen.
type Result struct {
	Session      models.GameSession        `json:"session"`
	BeatTheClock *models.BeatTheClockScore `json:"beat_the_clock,omitempty"`
	Speedrun     *models.SpeedrunScore     `json:"speedrun,omitempty"`
	Trophy       models.TrophyReward       `json:"trophy"`
	Validation   anticheat.Validation      `json:"validation"`
}

// Deps are the collaborators a Machine needs. Everything is injected; there
// is no ambient state.
type Deps struct {
	Clock    clockwork.Clock
	Timer    *timer.Engine
	Cache    *cache.PlantCache
	Scorer   *scoring.Engine
	Tracker  *records.Tracker
	Trophies *records.TrophyLedger
	Scores   repository.ScoreRepository
	History  repository.HistoryRepository
	KV       *kvstore.Store
}

// Machine owns one game session for its lifetime. All operations are
// serialized through a single mutex; scoring and record tracking receive
// value snapshots, never the live session.
type Machine struct {
	mu          sync.Mutex
	deps        Deps
	session     models.GameSession
	pending     *models.Question
	shownPaused float64 // paused total when the pending question was shown
	fetchCancel context.CancelFunc
	log         *logger.Logger
}

func NewMachine(deps Deps) *Machine {
	return &Machine{
		deps: deps,
		log:  logger.Default().WithPrefix("session"),
	}
}

// Start creates a fresh session and starts the timer. Only the two
// single-player modes are driven by this engine.
func (m *Machine) Start(mode models.GameMode, difficulty models.Difficulty) (models.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mode != models.ModeBeatTheClock && mode != models.ModeSpeedrun {
		return models.GameSession{}, apperrors.NewValidationError("mode", "must be beatTheClock or speedrun")
	}
	if m.session.State == models.SessionActive || m.session.State == models.SessionPaused {
		return models.GameSession{}, apperrors.NewInvalidStateError("start", string(m.session.State))
	}

	now := m.deps.Clock.Now()
	m.session = models.GameSession{
		ID:         uuid.NewString(),
		Mode:       mode,
		Difficulty: difficulty,
		StartedAt:  now,
		State:      models.SessionActive,
	}
	m.pending = nil
	m.deps.Timer.Start(mode, now)

	m.log.Info("session started: id=%s, mode=%s, difficulty=%s", m.session.ID, mode, difficulty)
	return m.session, nil
}

// Session returns a snapshot of the current session.
func (m *Machine) Session() models.GameSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Timer exposes the tick channel for the current run.
func (m *Machine) Timer() *timer.Engine {
	return m.deps.Timer
}

// NextQuestion prepares the next round: one target plant from the cache plus
// distractors, preferring the target's taxonomic family, padded with generic
// placeholder labels so the option count is always exactly four.
func (m *Machine) NextQuestion(ctx context.Context) (*models.Question, error) {
	m.mu.Lock()
	if m.session.State != models.SessionActive {
		state := m.session.State
		m.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("nextQuestion", string(state))
	}
	if m.pending != nil {
		m.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("nextQuestion", "question already pending")
	}
	if m.session.Mode == models.ModeSpeedrun && m.session.QuestionsAnswered() >= models.SpeedrunQuestionCount {
		m.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("nextQuestion", "speedrun question budget exhausted")
	}
	index := m.session.QuestionsAnswered()
	difficulty := m.session.Difficulty
	fetchCtx, cancel := context.WithCancel(ctx)
	m.fetchCancel = cancel
	m.mu.Unlock()

	defer cancel()

	candidates, err := m.deps.Cache.Candidates(fetchCtx, difficulty, candidatePoolMin)
	if err != nil {
		return nil, err
	}
	target := candidates[0].Plant

	if err := m.deps.Cache.RecordUsage(fetchCtx, target.ID); err != nil {
		// Usage bookkeeping is not worth failing the question over.
		m.log.Warn("failed to record usage for %s: %v", target.ID, err)
	}

	names, err := m.deps.Cache.DistractorNames(fetchCtx, target, optionCount-1)
	if err != nil {
		return nil, err
	}
	if len(names) < optionCount-1 {
		exclude := map[string]bool{target.DisplayName(): true}
		for _, n := range names {
			exclude[n] = true
		}
		names = append(names, cache.PlaceholderNames(optionCount-1-len(names), exclude)...)
	}

	options := append([]string{target.DisplayName()}, names...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := fetchCtx.Err(); err != nil {
		// Session was stopped while fetching; drop the result.
		return nil, err
	}
	if m.session.State != models.SessionActive {
		return nil, apperrors.NewInvalidStateError("nextQuestion", string(m.session.State))
	}
	m.fetchCancel = nil
	m.pending = &models.Question{
		Index:       index,
		Plant:       target,
		Options:     options,
		CorrectText: target.DisplayName(),
		ShownAt:     m.deps.Clock.Now(),
	}
	m.shownPaused = m.deps.Timer.PausedTotal()

	m.log.Debug("question %d prepared: target=%s", index, target.ID)
	return m.pending, nil
}

// SubmitAnswer records the answer to the pending question. Time-to-answer is
// measured from question display, net of any pause in between.
func (m *Machine) SubmitAnswer(selected string) (models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.State != models.SessionActive {
		return models.Answer{}, apperrors.NewInvalidStateError("submitAnswer", string(m.session.State))
	}
	if m.pending == nil {
		return models.Answer{}, apperrors.NewInvalidStateError("submitAnswer", "no question pending")
	}

	now := m.deps.Clock.Now()
	pausedSince := m.deps.Timer.PausedTotal() - m.shownPaused
	timeToAnswer := now.Sub(m.pending.ShownAt).Seconds() - pausedSince
	if timeToAnswer < 0 {
		timeToAnswer = 0
	}

	answer := models.Answer{
		QuestionIndex: m.pending.Index,
		PlantID:       m.pending.Plant.ID,
		SelectedText:  selected,
		CorrectText:   m.pending.CorrectText,
		IsCorrect:     selected == m.pending.CorrectText,
		TimeToAnswer:  timeToAnswer,
		AnsweredAt:    now,
	}
	m.session.Answers = append(m.session.Answers, answer)
	m.session.TotalGameTime = m.deps.Timer.Elapsed()
	m.pending = nil

	m.log.Debug("answer %d recorded: correct=%v, time=%.2fs", answer.QuestionIndex, answer.IsCorrect, timeToAnswer)
	return answer, nil
}

// Pause freezes the timer and persists recovery snapshots best-effort.
func (m *Machine) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.State != models.SessionActive {
		return apperrors.NewInvalidStateError("pause", string(m.session.State))
	}
	m.deps.Timer.Pause()
	m.session.State = models.SessionPaused
	m.saveSnapshotsLocked(ctx)
	m.log.Info("session paused: id=%s", m.session.ID)
	return nil
}

// Resume un-freezes the timer.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.State != models.SessionPaused {
		return apperrors.NewInvalidStateError("resume", string(m.session.State))
	}
	m.deps.Timer.Resume()
	m.session.State = models.SessionActive
	m.log.Info("session resumed: id=%s", m.session.ID)
	return nil
}

// Complete finishes the session, scores it, screens it, updates records and
// history, and returns the result. The completed state is terminal.
func (m *Machine) Complete(ctx context.Context) (*Result, error) {
	m.mu.Lock()

	if m.session.State != models.SessionActive && m.session.State != models.SessionPaused {
		state := m.session.State
		m.mu.Unlock()
		return nil, apperrors.NewInvalidStateError("complete", string(state))
	}

	// The timer may already be idle if a Beat the Clock window expired and
	// auto-stopped it; keep the last recorded game time in that case.
	if m.deps.Timer.State() != timer.Idle {
		if m.session.State == models.SessionPaused {
			m.deps.Timer.Resume()
		}
		m.session.TotalGameTime = m.deps.Timer.Elapsed()
		m.session.PausedTotal = m.deps.Timer.PausedTotal()
		m.deps.Timer.Stop()
	} else if m.session.Mode == models.ModeBeatTheClock &&
		m.session.TotalGameTime < models.BeatTheClockWindowSeconds {
		m.session.TotalGameTime = models.BeatTheClockWindowSeconds
	}
	m.session.State = models.SessionCompleted
	m.pending = nil
	snapshot := m.session
	m.mu.Unlock()

	m.log.Info("session completed: id=%s, answered=%d, correct=%d, time=%.2fs",
		snapshot.ID, snapshot.QuestionsAnswered(), snapshot.CorrectAnswers(), snapshot.TotalGameTime)

	result := &Result{Session: snapshot}

	// New-record comparison happens against the stored best at scoring time,
	// before the tracker overwrites it.
	isNewBest, err := m.deps.Tracker.IsNewBest(ctx, snapshot)
	if err != nil {
		m.log.Warn("failed to check personal best: %v", err)
		isNewBest = false
	}

	rawRating := 0
	switch snapshot.Mode {
	case models.ModeBeatTheClock:
		score := m.deps.Scorer.BeatTheClock(snapshot)
		score.IsNewRecord = isNewBest
		result.BeatTheClock = &score
		if _, err := m.deps.Scores.InsertBeatTheClock(ctx, score); err != nil {
			m.log.Warn("failed to persist beat-the-clock score: %v", err)
		} else if _, err := m.deps.Scores.PruneBeatTheClock(ctx, snapshot.Difficulty, leaderboardKeep); err != nil {
			m.log.Warn("failed to prune beat-the-clock leaderboard: %v", err)
		}
	case models.ModeSpeedrun:
		score := m.deps.Scorer.Speedrun(snapshot)
		score.IsNewRecord = isNewBest
		rawRating = score.Rating
		result.Speedrun = &score
		if _, err := m.deps.Scores.InsertSpeedrun(ctx, score); err != nil {
			m.log.Warn("failed to persist speedrun score: %v", err)
		} else if _, err := m.deps.Scores.PruneSpeedrun(ctx, snapshot.Difficulty, leaderboardKeep); err != nil {
			m.log.Warn("failed to prune speedrun leaderboard: %v", err)
		}
	}

	result.Validation = anticheat.Validate(snapshot, rawRating)

	if _, err := m.deps.Tracker.Update(ctx, snapshot); err != nil {
		m.log.Warn("failed to update personal best: %v", err)
	}

	result.Trophy = m.deps.Scorer.Trophy(snapshot)
	m.deps.Trophies.Add(ctx, result.Trophy, snapshot.Mode, snapshot.Difficulty)

	entry := models.GameHistoryEntry{
		ID:                snapshot.ID,
		Mode:              snapshot.Mode,
		Difficulty:        snapshot.Difficulty,
		Score:             snapshot.Score(),
		CorrectAnswers:    snapshot.CorrectAnswers(),
		QuestionsAnswered: snapshot.QuestionsAnswered(),
		Accuracy:          snapshot.Accuracy(),
		TotalGameTime:     snapshot.TotalGameTime,
		PlayedAt:          snapshot.StartedAt,
	}
	if err := m.deps.History.Append(ctx, entry, historyCap); err != nil {
		m.log.Warn("failed to append game history: %v", err)
	}

	m.clearSnapshots(ctx)
	return result, nil
}

// Abandon stops the session without scoring it: cancels any in-flight fetch,
// stops the timer, and clears saved snapshots.
func (m *Machine) Abandon(ctx context.Context) {
	m.mu.Lock()
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
	m.deps.Timer.Stop()
	m.session.State = models.SessionCompleted
	m.pending = nil
	id := m.session.ID
	m.mu.Unlock()

	m.clearSnapshots(ctx)
	m.log.Info("session abandoned: id=%s", id)
}
