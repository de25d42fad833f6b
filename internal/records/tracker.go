package records

import (
	"context"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
	"github.com/tbueno/florarush/internal/scoring"
)

// Tracker compares finished sessions against stored personal bests and
// persists a replacement record when one is earned. One best is kept per
// (mode, difficulty) pair.
type Tracker struct {
	bests  repository.PersonalBestRepository
	scorer *scoring.Engine
	log    *logger.Logger
}

func NewTracker(bests repository.PersonalBestRepository, scorer *scoring.Engine) *Tracker {
	return &Tracker{
		bests:  bests,
		scorer: scorer,
		log:    logger.Default().WithPrefix("records"),
	}
}

// IsNewBest reports whether the session beats the stored best. Sessions that
// have not completed never qualify.
func (t *Tracker) IsNewBest(ctx context.Context, session models.GameSession) (bool, error) {
	if session.State != models.SessionCompleted {
		return false, nil
	}

	best, err := t.bests.Get(ctx, session.Mode, session.Difficulty)
	if err != nil {
		return false, err
	}
	if best == nil {
		return true, nil
	}

	switch session.Mode {
	case models.ModeBeatTheClock:
		return session.CorrectAnswers() > best.CorrectAnswers, nil
	case models.ModeSpeedrun:
		if session.QuestionsAnswered() < models.SpeedrunQuestionCount {
			return false, nil
		}
		// The rating scalar is the comparison key; accuracy does not gate it.
		return t.scorer.Speedrun(session).Rating > best.Rating, nil
	default:
		return session.Score() > best.Score, nil
	}
}

// Update overwrites the stored best when the session earns it. Returns the
// stored record, or nil when the session did not qualify.
func (t *Tracker) Update(ctx context.Context, session models.GameSession) (*models.PersonalBest, error) {
	isNew, err := t.IsNewBest(ctx, session)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return nil, nil
	}

	best := models.PersonalBest{
		Mode:              session.Mode,
		Difficulty:        session.Difficulty,
		CorrectAnswers:    session.CorrectAnswers(),
		QuestionsAnswered: session.QuestionsAnswered(),
		Score:             session.Score(),
		Accuracy:          session.Accuracy(),
		AchievedAt:        session.StartedAt,
	}
	if session.Mode == models.ModeSpeedrun {
		best.Rating = t.scorer.Speedrun(session).Rating
	}

	if err := t.bests.Put(ctx, best); err != nil {
		return nil, err
	}
	t.log.Info("new personal best: mode=%s, difficulty=%s, score=%.2f", best.Mode, best.Difficulty, best.Score)
	return &best, nil
}
