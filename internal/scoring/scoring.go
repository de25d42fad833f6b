package scoring

import (
	"math"
	"time"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
)

const (
	ratingMax          = 1000
	incompleteCap      = 100
	completedBase      = 400
	accuracyRatingSpan = 200
)

// Engine computes mode-specific score snapshots and trophy rewards from a
// finished (or abandoned) session. All methods are pure; record comparison is
// the tracker's job.
type Engine struct {
	log *logger.Logger
}

func NewEngine() *Engine {
	return &Engine{log: logger.Default().WithPrefix("scoring")}
}

// BeatTheClock scores a Beat the Clock run. IsNewRecord is left false; the
// caller sets it after consulting the stored best.
func (e *Engine) BeatTheClock(session models.GameSession) models.BeatTheClockScore {
	timeUsed := session.TotalGameTime
	if timeUsed > models.BeatTheClockWindowSeconds {
		timeUsed = models.BeatTheClockWindowSeconds
	}

	correct := session.CorrectAnswers()
	pointsPerSecond := 0.0
	if timeUsed > 0 {
		pointsPerSecond = float64(correct) / timeUsed
	}

	score := models.BeatTheClockScore{
		CorrectAnswers:  correct,
		TotalQuestions:  session.QuestionsAnswered(),
		Accuracy:        session.Accuracy(),
		TimeUsed:        timeUsed,
		PointsPerSecond: pointsPerSecond,
		Difficulty:      session.Difficulty,
		AchievedAt:      time.Now(),
	}
	e.log.Debug("beat-the-clock score: correct=%d, pps=%.3f", correct, pointsPerSecond)
	return score
}

// Speedrun scores a Speedrun. Rating is bounded to [0, 1000]; an incomplete
// run never scores above 100.
func (e *Engine) Speedrun(session models.GameSession) models.SpeedrunScore {
	answered := session.QuestionsAnswered()
	correct := session.CorrectAnswers()
	accuracy := session.Accuracy()
	completed := answered >= models.SpeedrunQuestionCount && correct >= models.SpeedrunQuestionCount

	rating := speedrunRating(session.TotalGameTime, accuracy, completed, session.Difficulty)

	score := models.SpeedrunScore{
		CompletionTime:    session.TotalGameTime,
		QuestionsAnswered: answered,
		CorrectAnswers:    correct,
		Accuracy:          accuracy,
		IsCompleted:       completed,
		Rating:            rating,
		Tier:              models.TierForRating(rating),
		Difficulty:        session.Difficulty,
		AchievedAt:        time.Now(),
	}
	e.log.Debug("speedrun score: completed=%v, rating=%d, tier=%s", completed, rating, score.Tier)
	return score
}

func speedrunRating(completionTime, accuracy float64, completed bool, difficulty models.Difficulty) int {
	if !completed {
		rating := int(math.Floor(accuracy * 100))
		if rating > incompleteCap {
			rating = incompleteCap
		}
		if rating < 0 {
			rating = 0
		}
		return rating
	}

	base := float64(completedBase)
	base += timeBonus(completionTime, difficulty)
	base += math.Round(accuracy * accuracyRatingSpan)
	rating := int(math.Round(base * difficulty.Multiplier()))

	if rating < 0 {
		rating = 0
	}
	if rating > ratingMax {
		rating = ratingMax
	}
	return rating
}

// timeBonus rewards beating the per-difficulty target time. Beating it earns
// 150 plus up to another 150 linearly by margin; missing it shrinks the 150
// base toward zero at twice the target.
func timeBonus(completionTime float64, difficulty models.Difficulty) float64 {
	target := difficulty.SpeedrunTargetSeconds()
	if completionTime <= 0 {
		return 300
	}
	if completionTime <= target {
		bonus := 150 + 150*(target-completionTime)/target
		if bonus > 300 {
			bonus = 300
		}
		return bonus
	}
	bonus := 150 - 150*(completionTime-target)/target
	if bonus < 0 {
		bonus = 0
	}
	return bonus
}

// Trophy rates per correct answer by mode.
const (
	trophyRateBeatTheClock = 10
	trophyRateSpeedrun     = 12
	trophyRateLegacy       = 5
)

// Trophy computes the itemized trophy reward for a finished session.
func (e *Engine) Trophy(session models.GameSession) models.TrophyReward {
	correct := session.CorrectAnswers()

	rate := trophyRateLegacy
	switch session.Mode {
	case models.ModeBeatTheClock:
		rate = trophyRateBeatTheClock
	case models.ModeSpeedrun:
		rate = trophyRateSpeedrun
	}

	reward := models.TrophyReward{
		Base:            rate * correct,
		AccuracyBonus:   accuracyBonus(session.Accuracy(), session.QuestionsAnswered()),
		StreakBonus:     streakBonus(session.LongestStreak()),
		SpeedBonus:      speedBonus(session),
		CompletionBonus: completionBonus(session),
		Multiplier:      session.Difficulty.Multiplier(),
	}
	sum := reward.Base + reward.AccuracyBonus + reward.StreakBonus + reward.SpeedBonus + reward.CompletionBonus
	reward.Total = int(math.Floor(float64(sum) * reward.Multiplier))

	e.log.Debug("trophy reward: base=%d, total=%d", reward.Base, reward.Total)
	return reward
}

func accuracyBonus(accuracy float64, answered int) int {
	if answered == 0 {
		return 0
	}
	switch {
	case accuracy >= 0.95:
		return 100
	case accuracy >= 0.90:
		return 75
	case accuracy >= 0.80:
		return 50
	case accuracy >= 0.70:
		return 25
	default:
		return 0
	}
}

func streakBonus(streak int) int {
	switch {
	case streak >= 15:
		return 80
	case streak >= 10:
		return 50
	case streak >= 5:
		return 25
	case streak >= 3:
		return 10
	default:
		return 0
	}
}

// speedBonus applies to Speedrun only, tiered by the average answer time
// against the per-question share of the target.
func speedBonus(session models.GameSession) int {
	if session.Mode != models.ModeSpeedrun || session.QuestionsAnswered() == 0 {
		return 0
	}
	avg := session.TotalGameTime / float64(session.QuestionsAnswered())
	targetAvg := session.Difficulty.SpeedrunTargetSeconds() / models.SpeedrunQuestionCount
	ratio := avg / targetAvg
	switch {
	case ratio <= 0.6:
		return 75
	case ratio <= 0.8:
		return 50
	case ratio <= 1.0:
		return 25
	default:
		return 0
	}
}

func completionBonus(session models.GameSession) int {
	switch session.Mode {
	case models.ModeSpeedrun:
		if session.QuestionsAnswered() >= models.SpeedrunQuestionCount &&
			session.CorrectAnswers() >= models.SpeedrunQuestionCount {
			return 100
		}
		return 0
	case models.ModeBeatTheClock:
		correct := session.CorrectAnswers()
		switch {
		case correct >= 20:
			return 100
		case correct >= 15:
			return 50
		case correct >= 10:
			return 25
		default:
			return 0
		}
	default:
		return 0
	}
}
