package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
)

type personalBestRepository struct {
	db *sql.DB
}

// NewPersonalBestRepository creates a new PersonalBestRepository implementation
func NewPersonalBestRepository(db *sql.DB) repository.PersonalBestRepository {
	return &personalBestRepository{db: db}
}

func (r *personalBestRepository) Get(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) (*models.PersonalBest, error) {
	log := logger.FromContext(ctx).WithPrefix("best_repo")
	log.Debug("getting personal best: mode=%s, difficulty=%s", mode, difficulty)

	var b models.PersonalBest
	err := r.db.QueryRowContext(ctx, `
SELECT mode, difficulty, correct_answers, questions_answered, score, accuracy, rating, achieved_at
FROM personal_bests
WHERE mode = ? AND difficulty = ?
`, mode, difficulty).Scan(&b.Mode, &b.Difficulty, &b.CorrectAnswers, &b.QuestionsAnswered, &b.Score, &b.Accuracy, &b.Rating, &b.AchievedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no personal best yet: mode=%s, difficulty=%s", mode, difficulty)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get personal best: %v", err)
		return nil, err
	}
	return &b, nil
}

func (r *personalBestRepository) Put(ctx context.Context, best models.PersonalBest) error {
	log := logger.FromContext(ctx).WithPrefix("best_repo")
	log.Debug("storing personal best: mode=%s, difficulty=%s, score=%.2f", best.Mode, best.Difficulty, best.Score)

	// Overwrite, never append.
	_, err := r.db.ExecContext(ctx, `
INSERT INTO personal_bests (mode, difficulty, correct_answers, questions_answered, score, accuracy, rating, achieved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(mode, difficulty) DO UPDATE SET
    correct_answers = excluded.correct_answers,
    questions_answered = excluded.questions_answered,
    score = excluded.score,
    accuracy = excluded.accuracy,
    rating = excluded.rating,
    achieved_at = excluded.achieved_at
`, best.Mode, best.Difficulty, best.CorrectAnswers, best.QuestionsAnswered, best.Score, best.Accuracy, best.Rating, best.AchievedAt)
	if err != nil {
		log.Error("failed to store personal best: %v", err)
	}
	return err
}

func (r *personalBestRepository) Reset(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) error {
	log := logger.FromContext(ctx).WithPrefix("best_repo")
	log.Info("resetting personal best: mode=%s, difficulty=%s", mode, difficulty)

	_, err := r.db.ExecContext(ctx, `DELETE FROM personal_bests WHERE mode = ? AND difficulty = ?`, mode, difficulty)
	if err != nil {
		log.Error("failed to reset personal best: %v", err)
	}
	return err
}

func (r *personalBestRepository) All(ctx context.Context) ([]models.PersonalBest, error) {
	log := logger.FromContext(ctx).WithPrefix("best_repo")
	log.Debug("listing personal bests")

	rows, err := r.db.QueryContext(ctx, `
SELECT mode, difficulty, correct_answers, questions_answered, score, accuracy, rating, achieved_at
FROM personal_bests
ORDER BY mode, difficulty
`)
	if err != nil {
		log.Error("failed to list personal bests: %v", err)
		return nil, err
	}
	defer rows.Close()

	var bests []models.PersonalBest
	for rows.Next() {
		var b models.PersonalBest
		if err := rows.Scan(&b.Mode, &b.Difficulty, &b.CorrectAnswers, &b.QuestionsAnswered, &b.Score, &b.Accuracy, &b.Rating, &b.AchievedAt); err != nil {
			log.Error("failed to scan personal best: %v", err)
			return nil, err
		}
		bests = append(bests, b)
	}
	return bests, rows.Err()
}
