package models

import "fmt"

// Difficulty partitions plant identification difficulty into four named tiers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ParseDifficulty validates and returns a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Band returns the closed numeric difficulty-score range for the tier.
func (d Difficulty) Band() (min, max int) {
	switch d {
	case DifficultyEasy:
		return 1, 25
	case DifficultyMedium:
		return 26, 50
	case DifficultyHard:
		return 51, 75
	case DifficultyExpert:
		return 76, 100
	default:
		return 1, 100
	}
}

// Multiplier returns the score multiplier applied to ratings and trophies.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 0.8
	case DifficultyMedium:
		return 1.0
	case DifficultyHard:
		return 1.2
	case DifficultyExpert:
		return 1.5
	default:
		return 1.0
	}
}

// SpeedrunTargetSeconds returns the per-difficulty target completion time used
// by the speedrun time bonus.
func (d Difficulty) SpeedrunTargetSeconds() float64 {
	switch d {
	case DifficultyEasy:
		return 150
	case DifficultyMedium:
		return 120
	case DifficultyHard:
		return 100
	case DifficultyExpert:
		return 80
	default:
		return 120
	}
}
