package anticheat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbueno/florarush/internal/anticheat"
	"github.com/tbueno/florarush/internal/models"
)

func session(mode models.GameMode, correct, wrong int, totalTime, pausedTotal float64) models.GameSession {
	s := models.GameSession{
		ID:            "s1",
		Mode:          mode,
		Difficulty:    models.DifficultyMedium,
		TotalGameTime: totalTime,
		PausedTotal:   pausedTotal,
		State:         models.SessionCompleted,
	}
	for i := 0; i < correct; i++ {
		s.Answers = append(s.Answers, models.Answer{QuestionIndex: i, IsCorrect: true})
	}
	for i := 0; i < wrong; i++ {
		s.Answers = append(s.Answers, models.Answer{QuestionIndex: correct + i})
	}
	return s
}

func TestValidate_CleanRun(t *testing.T) {
	v := anticheat.Validate(session(models.ModeBeatTheClock, 15, 5, 60, 0), 0)

	assert.False(t, v.SuspiciousActivityDetected)
	assert.Empty(t, v.Warnings)
	assert.Nil(t, v.AdjustedRating)
}

func TestValidate_FastPerfectRun(t *testing.T) {
	// 20 perfect answers in 30 seconds: 1.5s mean, plausible alone, but a
	// perfect run that fast is flagged.
	v := anticheat.Validate(session(models.ModeBeatTheClock, 20, 0, 30, 0), 0)

	require.True(t, v.SuspiciousActivityDetected)
	require.NotEmpty(t, v.Warnings)
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "fast/perfect") {
			found = true
		}
	}
	assert.True(t, found, "expected the fast/perfect warning, got %v", v.Warnings)
}

func TestValidate_SubSecondMeans(t *testing.T) {
	btc := anticheat.Validate(session(models.ModeBeatTheClock, 30, 0, 25, 0), 0)
	assert.True(t, btc.SuspiciousActivityDetected)

	general := anticheat.Validate(session(models.ModeSpeedrun, 25, 0, 10, 0), 700)
	require.True(t, general.SuspiciousActivityDetected)
	require.NotNil(t, general.AdjustedRating)
	assert.Equal(t, 500, *general.AdjustedRating)
}

func TestValidate_SpeedrunTooSlow(t *testing.T) {
	v := anticheat.Validate(session(models.ModeSpeedrun, 5, 5, 400, 0), 40)
	assert.True(t, v.SuspiciousActivityDetected)
}

func TestValidate_TooManyAnswersForWindow(t *testing.T) {
	v := anticheat.Validate(session(models.ModeBeatTheClock, 45, 0, 60, 0), 0)
	assert.True(t, v.SuspiciousActivityDetected)
}

func TestValidate_ImplausibleTotalTime(t *testing.T) {
	v := anticheat.Validate(session(models.ModeSpeedrun, 20, 0, 5, 0), 600)

	require.True(t, v.SuspiciousActivityDetected)
	require.NotNil(t, v.AdjustedRating)
	assert.Equal(t, 400, *v.AdjustedRating)
}

func TestValidate_ExcessivePause(t *testing.T) {
	v := anticheat.Validate(session(models.ModeSpeedrun, 20, 5, 100, 150), 0)

	require.True(t, v.SuspiciousActivityDetected)
	require.NotNil(t, v.AdjustedRating)
	assert.Zero(t, *v.AdjustedRating, "penalty floors at zero")
}

func TestValidate_EmptySession(t *testing.T) {
	v := anticheat.Validate(session(models.ModeBeatTheClock, 0, 0, 0, 0), 0)
	assert.False(t, v.SuspiciousActivityDetected)
}
