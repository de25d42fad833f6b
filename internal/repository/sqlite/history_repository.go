package sqlite

import (
	"context"
	"database/sql"

	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
)

type historyRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository implementation
func NewHistoryRepository(db *sql.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, e models.GameHistoryEntry, cap int) error {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("appending history entry: id=%s, mode=%s", e.ID, e.Mode)

	return tx(ctx, r.db, func(txn *sql.Tx) error {
		_, err := txn.ExecContext(ctx, `
INSERT INTO game_history (id, mode, difficulty, score, correct_answers, questions_answered, accuracy, total_game_time, played_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.Mode, e.Difficulty, e.Score, e.CorrectAnswers, e.QuestionsAnswered, e.Accuracy, e.TotalGameTime, e.PlayedAt)
		if err != nil {
			return err
		}
		// Keep only the newest cap entries.
		_, err = txn.ExecContext(ctx, `
DELETE FROM game_history WHERE id NOT IN (
    SELECT id FROM game_history ORDER BY played_at DESC LIMIT ?
)
`, cap)
		return err
	})
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]models.GameHistoryEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("listing history: limit=%d", limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, mode, difficulty, score, correct_answers, questions_answered, accuracy, total_game_time, played_at
FROM game_history
ORDER BY played_at DESC
LIMIT ?
`, limit)
	if err != nil {
		log.Error("failed to list history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []models.GameHistoryEntry
	for rows.Next() {
		var e models.GameHistoryEntry
		if err := rows.Scan(&e.ID, &e.Mode, &e.Difficulty, &e.Score, &e.CorrectAnswers, &e.QuestionsAnswered, &e.Accuracy, &e.TotalGameTime, &e.PlayedAt); err != nil {
			log.Error("failed to scan history entry: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
