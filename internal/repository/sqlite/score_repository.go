package sqlite

import (
	"context"
	"database/sql"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
)

type scoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a new ScoreRepository implementation
func NewScoreRepository(db *sql.DB) repository.ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) InsertBeatTheClock(ctx context.Context, s models.BeatTheClockScore) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("inserting beat-the-clock score: difficulty=%s, correct=%d", s.Difficulty, s.CorrectAnswers)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO beat_the_clock_scores (difficulty, correct_answers, total_questions, accuracy, time_used, points_per_second, is_new_record, achieved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, s.Difficulty, s.CorrectAnswers, s.TotalQuestions, s.Accuracy, s.TimeUsed, s.PointsPerSecond, s.IsNewRecord, s.AchievedAt)
	if err != nil {
		log.Error("failed to insert beat-the-clock score: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get score id: %v", err)
		return 0, err
	}
	log.Debug("beat-the-clock score inserted: id=%d", id)
	return id, nil
}

func (r *scoreRepository) InsertSpeedrun(ctx context.Context, s models.SpeedrunScore) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("inserting speedrun score: difficulty=%s, rating=%d", s.Difficulty, s.Rating)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO speedrun_scores (difficulty, completion_time, questions_answered, correct_answers, accuracy, is_completed, rating, tier, is_new_record, achieved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, s.Difficulty, s.CompletionTime, s.QuestionsAnswered, s.CorrectAnswers, s.Accuracy, s.IsCompleted, s.Rating, s.Tier, s.IsNewRecord, s.AchievedAt)
	if err != nil {
		log.Error("failed to insert speedrun score: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get score id: %v", err)
		return 0, err
	}
	log.Debug("speedrun score inserted: id=%d", id)
	return id, nil
}

func (r *scoreRepository) TopBeatTheClock(ctx context.Context, difficulty models.Difficulty, limit int) ([]models.BeatTheClockScore, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("fetching top beat-the-clock scores: difficulty=%s, limit=%d", difficulty, limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT difficulty, correct_answers, total_questions, accuracy, time_used, points_per_second, is_new_record, achieved_at
FROM beat_the_clock_scores
WHERE difficulty = ?
ORDER BY correct_answers DESC, accuracy DESC, time_used ASC
LIMIT ?
`, difficulty, limit)
	if err != nil {
		log.Error("failed to query beat-the-clock scores: %v", err)
		return nil, err
	}
	defer rows.Close()

	var scores []models.BeatTheClockScore
	for rows.Next() {
		var s models.BeatTheClockScore
		if err := rows.Scan(&s.Difficulty, &s.CorrectAnswers, &s.TotalQuestions, &s.Accuracy, &s.TimeUsed, &s.PointsPerSecond, &s.IsNewRecord, &s.AchievedAt); err != nil {
			log.Error("failed to scan beat-the-clock score: %v", err)
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *scoreRepository) TopSpeedrun(ctx context.Context, difficulty models.Difficulty, limit int) ([]models.SpeedrunScore, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("fetching top speedrun scores: difficulty=%s, limit=%d", difficulty, limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT difficulty, completion_time, questions_answered, correct_answers, accuracy, is_completed, rating, tier, is_new_record, achieved_at
FROM speedrun_scores
WHERE difficulty = ?
ORDER BY rating DESC, is_completed DESC, completion_time ASC
LIMIT ?
`, difficulty, limit)
	if err != nil {
		log.Error("failed to query speedrun scores: %v", err)
		return nil, err
	}
	defer rows.Close()

	var scores []models.SpeedrunScore
	for rows.Next() {
		var s models.SpeedrunScore
		if err := rows.Scan(&s.Difficulty, &s.CompletionTime, &s.QuestionsAnswered, &s.CorrectAnswers, &s.Accuracy, &s.IsCompleted, &s.Rating, &s.Tier, &s.IsNewRecord, &s.AchievedAt); err != nil {
			log.Error("failed to scan speedrun score: %v", err)
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *scoreRepository) PruneBeatTheClock(ctx context.Context, difficulty models.Difficulty, keep int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")

	res, err := r.db.ExecContext(ctx, `
DELETE FROM beat_the_clock_scores
WHERE difficulty = ? AND id NOT IN (
    SELECT id FROM beat_the_clock_scores
    WHERE difficulty = ?
    ORDER BY correct_answers DESC, accuracy DESC, time_used ASC
    LIMIT ?
)
`, difficulty, difficulty, keep)
	if err != nil {
		log.Error("failed to prune beat-the-clock scores: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Debug("pruned %d beat-the-clock scores beyond top %d", n, keep)
	}
	return int(n), nil
}

func (r *scoreRepository) PruneSpeedrun(ctx context.Context, difficulty models.Difficulty, keep int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")

	res, err := r.db.ExecContext(ctx, `
DELETE FROM speedrun_scores
WHERE difficulty = ? AND id NOT IN (
    SELECT id FROM speedrun_scores
    WHERE difficulty = ?
    ORDER BY rating DESC, is_completed DESC, completion_time ASC
    LIMIT ?
)
`, difficulty, difficulty, keep)
	if err != nil {
		log.Error("failed to prune speedrun scores: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Debug("pruned %d speedrun scores beyond top %d", n, keep)
	}
	return int(n), nil
}
