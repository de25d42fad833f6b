package anticheat

import (
	"fmt"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
)

// Timing floors and ceilings for plausible human play, in seconds.
const (
	beatTheClockMinMeanTime = 1.0
	generalMinMeanTime      = 0.5
	speedrunMaxMeanTime     = 30.0
	perfectRunMeanFloor     = 2.0
	perfectRunMinAnswers    = 10
	minPlausiblePerQuestion = 0.5
	ratingPenalty           = 200
)

// beatTheClockMaxAnswers is the physically-plausible answer ceiling for the
// 60 second window at 1.5s per question.
const beatTheClockMaxAnswers = int(models.BeatTheClockWindowSeconds / 1.5)

// Validation is the advisory result of a cheat screen. It always accompanies
// a usable score; the caller decides whether to persist the adjusted or the
// raw rating.
type Validation struct {
	SuspiciousActivityDetected bool     `json:"suspicious_activity_detected"`
	Warnings                   []string `json:"warnings"`
	AdjustedRating             *int     `json:"adjusted_rating,omitempty"`
}

// Validate screens a completed or in-progress session's timing and accuracy
// profile. rawRating is the mode rating before any penalty (0 for modes
// without one). The session itself is never mutated.
func Validate(session models.GameSession, rawRating int) Validation {
	log := logger.Default().WithPrefix("anticheat")

	var warnings []string
	answered := session.QuestionsAnswered()

	if answered > 0 && session.TotalGameTime > 0 {
		mean := session.TotalGameTime / float64(answered)

		if session.Mode == models.ModeBeatTheClock && mean < beatTheClockMinMeanTime {
			warnings = append(warnings, fmt.Sprintf(
				"mean answer time %.2fs below the %.1fs floor for Beat the Clock", mean, beatTheClockMinMeanTime))
		}
		if mean < generalMinMeanTime {
			warnings = append(warnings, fmt.Sprintf(
				"mean answer time %.2fs below the plausible %.1fs floor", mean, generalMinMeanTime))
		}
		if session.Mode == models.ModeSpeedrun && mean > speedrunMaxMeanTime {
			warnings = append(warnings, fmt.Sprintf(
				"mean answer time %.2fs above the %.0fs speedrun ceiling", mean, speedrunMaxMeanTime))
		}
		if session.Accuracy() >= 1.0 && answered >= perfectRunMinAnswers && mean < perfectRunMeanFloor {
			warnings = append(warnings, fmt.Sprintf(
				"suspicious fast/perfect run: 100%% accuracy over %d answers at %.2fs each", answered, mean))
		}
	}

	if session.Mode == models.ModeBeatTheClock && answered > beatTheClockMaxAnswers {
		warnings = append(warnings, fmt.Sprintf(
			"%d answers exceeds the plausible ceiling of %d for the 60s window", answered, beatTheClockMaxAnswers))
	}

	if answered > 0 && session.TotalGameTime < float64(answered)*minPlausiblePerQuestion {
		warnings = append(warnings, fmt.Sprintf(
			"total game time %.2fs inconsistent with %d answered questions", session.TotalGameTime, answered))
	}

	if answered > 0 && session.PausedTotal > session.TotalGameTime {
		warnings = append(warnings, fmt.Sprintf(
			"paused %.1fs exceeds active play time %.1fs, possible clock manipulation", session.PausedTotal, session.TotalGameTime))
	}

	v := Validation{
		SuspiciousActivityDetected: len(warnings) > 0,
		Warnings:                   warnings,
	}
	if v.SuspiciousActivityDetected {
		adjusted := rawRating - ratingPenalty
		if adjusted < 0 {
			adjusted = 0
		}
		v.AdjustedRating = &adjusted
		log.Warn("session %s flagged: %d warnings, rating %d -> %d", session.ID, len(warnings), rawRating, adjusted)
	}
	return v
}
