package models

import "time"

// GameMode identifies the rules a session is played under.
type GameMode string

const (
	ModeBeatTheClock GameMode = "beatTheClock"
	ModeSpeedrun     GameMode = "speedrun"
	ModeMultiplayer  GameMode = "multiplayer" // legacy, not driven by this engine
)

// Beat the Clock runs against a fixed window; Speedrun runs a fixed question set.
const (
	BeatTheClockWindowSeconds = 60.0
	SpeedrunQuestionCount     = 25
)

// SessionState is the lifecycle state of a GameSession.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
)

// Answer is one recorded response. Immutable once appended.
type Answer struct {
	QuestionIndex int       `json:"question_index"`
	PlantID       string    `json:"plant_id"`
	SelectedText  string    `json:"selected_text"`
	CorrectText   string    `json:"correct_text"`
	IsCorrect     bool      `json:"is_correct"`
	TimeToAnswer  float64   `json:"time_to_answer"` // seconds since question display, net of pauses
	AnsweredAt    time.Time `json:"answered_at"`
}

// Question is one prepared round: the target plant and exactly four options.
type Question struct {
	Index       int       `json:"index"`
	Plant       Plant     `json:"plant"`
	Options     []string  `json:"options"`
	CorrectText string    `json:"correct_text"`
	ShownAt     time.Time `json:"shown_at"`
}

// GameSession is one play-through. It is exclusively owned by its state
// machine for its lifetime; scoring and record tracking receive snapshots.
type GameSession struct {
	ID            string       `json:"id"`
	Mode          GameMode     `json:"mode"`
	Difficulty    Difficulty   `json:"difficulty"`
	StartedAt     time.Time    `json:"started_at"`
	PausedTotal   float64      `json:"paused_total"`    // cumulative paused seconds
	TotalGameTime float64      `json:"total_game_time"` // net elapsed seconds
	Answers       []Answer     `json:"answers"`
	State         SessionState `json:"state"`
}

func (s GameSession) QuestionsAnswered() int {
	return len(s.Answers)
}

func (s GameSession) CorrectAnswers() int {
	n := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// Accuracy is correct/answered, 0 when nothing has been answered.
func (s GameSession) Accuracy() float64 {
	if len(s.Answers) == 0 {
		return 0
	}
	return float64(s.CorrectAnswers()) / float64(len(s.Answers))
}

// Score is the mode-specific scalar: correct count for Beat the Clock,
// elapsed time for Speedrun (lower is better).
func (s GameSession) Score() float64 {
	switch s.Mode {
	case ModeBeatTheClock:
		return float64(s.CorrectAnswers())
	case ModeSpeedrun:
		return s.TotalGameTime
	default:
		// Legacy point total: 10 per correct answer.
		return float64(s.CorrectAnswers() * 10)
	}
}

// LongestStreak returns the longest run of consecutive correct answers.
func (s GameSession) LongestStreak() int {
	best, cur := 0, 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

// IsSpeedrunComplete reports whether the full speedrun question set was played.
func (s GameSession) IsSpeedrunComplete() bool {
	return s.Mode == ModeSpeedrun && s.QuestionsAnswered() >= SpeedrunQuestionCount
}

// GameHistoryEntry is one line of the capped game history log.
type GameHistoryEntry struct {
	ID                string     `json:"id"`
	Mode              GameMode   `json:"mode"`
	Difficulty        Difficulty `json:"difficulty"`
	Score             float64    `json:"score"`
	CorrectAnswers    int        `json:"correct_answers"`
	QuestionsAnswered int        `json:"questions_answered"`
	Accuracy          float64    `json:"accuracy"`
	TotalGameTime     float64    `json:"total_game_time"`
	PlayedAt          time.Time  `json:"played_at"`
}
