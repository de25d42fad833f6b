package models

import (
	"fmt"
	"time"
)

// BeatTheClockScore is the immutable result snapshot for a Beat the Clock run.
type BeatTheClockScore struct {
	CorrectAnswers  int        `json:"correct_answers"`
	TotalQuestions  int        `json:"total_questions"`
	Accuracy        float64    `json:"accuracy"`
	TimeUsed        float64    `json:"time_used"`
	PointsPerSecond float64    `json:"points_per_second"`
	Difficulty      Difficulty `json:"difficulty"`
	IsNewRecord     bool       `json:"is_new_record"`
	AchievedAt      time.Time  `json:"achieved_at"`
}

// DisplayScore renders the headline score.
func (s BeatTheClockScore) DisplayScore() string {
	return fmt.Sprintf("%d correct", s.CorrectAnswers)
}

// SpeedrunScore is the immutable result snapshot for a Speedrun.
type SpeedrunScore struct {
	CompletionTime    float64    `json:"completion_time"`
	QuestionsAnswered int        `json:"questions_answered"`
	CorrectAnswers    int        `json:"correct_answers"`
	Accuracy          float64    `json:"accuracy"`
	IsCompleted       bool       `json:"is_completed"`
	Rating            int        `json:"rating"` // 0-1000
	Tier              RatingTier `json:"tier"`
	Difficulty        Difficulty `json:"difficulty"`
	IsNewRecord       bool       `json:"is_new_record"`
	AchievedAt        time.Time  `json:"achieved_at"`
}

// RatingTier is one of the seven named speedrun rating bands.
type RatingTier string

const (
	TierBronze      RatingTier = "Bronze"
	TierSilver      RatingTier = "Silver"
	TierGold        RatingTier = "Gold"
	TierPlatinum    RatingTier = "Platinum"
	TierDiamond     RatingTier = "Diamond"
	TierMaster      RatingTier = "Master"
	TierGrandmaster RatingTier = "Grandmaster"
)

var tierThresholds = []struct {
	tier RatingTier
	min  int
}{
	{TierGrandmaster, 950},
	{TierMaster, 850},
	{TierDiamond, 750},
	{TierPlatinum, 600},
	{TierGold, 400},
	{TierSilver, 200},
	{TierBronze, 0},
}

// TierForRating maps a rating to the highest tier whose threshold does not
// exceed it.
func TierForRating(rating int) RatingTier {
	for _, t := range tierThresholds {
		if rating >= t.min {
			return t.tier
		}
	}
	return TierBronze
}

// TrophyReward itemizes the trophies earned by a finished session.
type TrophyReward struct {
	Base            int     `json:"base"`
	AccuracyBonus   int     `json:"accuracy_bonus"`
	StreakBonus     int     `json:"streak_bonus"`
	SpeedBonus      int     `json:"speed_bonus"`
	CompletionBonus int     `json:"completion_bonus"`
	Multiplier      float64 `json:"multiplier"`
	Total           int     `json:"total"`
}

// PersonalBest is the single stored best for a (mode, difficulty) pair. It is
// overwritten, never appended.
type PersonalBest struct {
	Mode              GameMode   `json:"mode"`
	Difficulty        Difficulty `json:"difficulty"`
	CorrectAnswers    int        `json:"correct_answers"`
	QuestionsAnswered int        `json:"questions_answered"`
	Score             float64    `json:"score"`
	Accuracy          float64    `json:"accuracy"`
	Rating            int        `json:"rating"`
	AchievedAt        time.Time  `json:"achieved_at"`
}
