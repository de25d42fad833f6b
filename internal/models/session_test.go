package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tbueno/florarush/internal/models"
)

func sessionWithAnswers(mode models.GameMode, pattern ...bool) models.GameSession {
	s := models.GameSession{Mode: mode, Difficulty: models.DifficultyMedium}
	for i, correct := range pattern {
		s.Answers = append(s.Answers, models.Answer{QuestionIndex: i, IsCorrect: correct})
	}
	return s
}

func TestAccuracy_EmptyIsZero(t *testing.T) {
	s := sessionWithAnswers(models.ModeBeatTheClock)
	assert.Zero(t, s.Accuracy())
}

func TestAccuracy(t *testing.T) {
	s := sessionWithAnswers(models.ModeBeatTheClock, true, true, false, true)
	assert.InDelta(t, 0.75, s.Accuracy(), 0.001)
	assert.Equal(t, 3, s.CorrectAnswers())
	assert.Equal(t, 4, s.QuestionsAnswered())
}

func TestScore_ByMode(t *testing.T) {
	btc := sessionWithAnswers(models.ModeBeatTheClock, true, true, false)
	assert.InDelta(t, 2.0, btc.Score(), 0.001)

	speedrun := sessionWithAnswers(models.ModeSpeedrun, true, true)
	speedrun.TotalGameTime = 95.5
	assert.InDelta(t, 95.5, speedrun.Score(), 0.001)

	legacy := sessionWithAnswers(models.ModeMultiplayer, true, true, true)
	assert.InDelta(t, 30.0, legacy.Score(), 0.001)
}

func TestLongestStreak(t *testing.T) {
	s := sessionWithAnswers(models.ModeBeatTheClock, true, true, false, true, true, true, false)
	assert.Equal(t, 3, s.LongestStreak())

	assert.Zero(t, sessionWithAnswers(models.ModeBeatTheClock, false, false).LongestStreak())
	assert.Zero(t, sessionWithAnswers(models.ModeBeatTheClock).LongestStreak())
}

func TestIsSpeedrunComplete(t *testing.T) {
	s := models.GameSession{Mode: models.ModeSpeedrun}
	for i := 0; i < models.SpeedrunQuestionCount; i++ {
		s.Answers = append(s.Answers, models.Answer{QuestionIndex: i})
	}
	assert.True(t, s.IsSpeedrunComplete())

	s.Answers = s.Answers[:24]
	assert.False(t, s.IsSpeedrunComplete())

	btc := sessionWithAnswers(models.ModeBeatTheClock)
	assert.False(t, btc.IsSpeedrunComplete())
}
