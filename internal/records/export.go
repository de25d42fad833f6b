package records

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
)

const (
	leaderboardKeep = 25
	historyCap      = 100
)

var exportDifficulties = []models.Difficulty{
	models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyExpert,
}

// Bundle is the single serialized export of everything the record store holds.
type Bundle struct {
	Version            int                                              `json:"version"`
	ExportedAt         time.Time                                        `json:"exported_at"`
	PersonalBests      []models.PersonalBest                            `json:"personal_bests"`
	BeatTheClockScores map[models.Difficulty][]models.BeatTheClockScore `json:"beat_the_clock_scores"`
	SpeedrunScores     map[models.Difficulty][]models.SpeedrunScore     `json:"speedrun_scores"`
	History            []models.GameHistoryEntry                        `json:"history"`
}

// Exporter moves the whole record store in and out of a serialized bundle.
type Exporter struct {
	bests   repository.PersonalBestRepository
	scores  repository.ScoreRepository
	history repository.HistoryRepository
	log     *logger.Logger
}

func NewExporter(bests repository.PersonalBestRepository, scores repository.ScoreRepository, history repository.HistoryRepository) *Exporter {
	return &Exporter{
		bests:   bests,
		scores:  scores,
		history: history,
		log:     logger.Default().WithPrefix("export"),
	}
}

// Export serializes all records into one JSON bundle.
func (e *Exporter) Export(ctx context.Context) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("export")
	log.Info("exporting record bundle")

	bests, err := e.bests.All(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("export personal bests", err)
	}

	bundle := Bundle{
		Version:            1,
		ExportedAt:         time.Now(),
		PersonalBests:      bests,
		BeatTheClockScores: make(map[models.Difficulty][]models.BeatTheClockScore),
		SpeedrunScores:     make(map[models.Difficulty][]models.SpeedrunScore),
	}

	for _, d := range exportDifficulties {
		btc, err := e.scores.TopBeatTheClock(ctx, d, leaderboardKeep)
		if err != nil {
			return nil, apperrors.NewPersistenceError("export beat-the-clock scores", err)
		}
		if len(btc) > 0 {
			bundle.BeatTheClockScores[d] = btc
		}
		sr, err := e.scores.TopSpeedrun(ctx, d, leaderboardKeep)
		if err != nil {
			return nil, apperrors.NewPersistenceError("export speedrun scores", err)
		}
		if len(sr) > 0 {
			bundle.SpeedrunScores[d] = sr
		}
	}

	history, err := e.history.List(ctx, historyCap)
	if err != nil {
		return nil, apperrors.NewPersistenceError("export history", err)
	}
	bundle.History = history

	blob, err := json.Marshal(bundle)
	if err != nil {
		return nil, apperrors.NewPersistenceError("encode bundle", err)
	}
	log.Info("exported bundle: %d bests, %d history entries, %d bytes", len(bests), len(history), len(blob))
	return blob, nil
}

// Import loads a bundle back into the record store. Leaderboards are pruned
// to their caps afterwards.
func (e *Exporter) Import(ctx context.Context, blob []byte) error {
	log := logger.FromContext(ctx).WithPrefix("export")

	var bundle Bundle
	if err := json.Unmarshal(blob, &bundle); err != nil {
		return apperrors.NewPersistenceError("decode bundle", err)
	}
	log.Info("importing record bundle from %v", bundle.ExportedAt)

	for _, best := range bundle.PersonalBests {
		if err := e.bests.Put(ctx, best); err != nil {
			return apperrors.NewPersistenceError("import personal best", err)
		}
	}

	for d, scores := range bundle.BeatTheClockScores {
		for _, s := range scores {
			if _, err := e.scores.InsertBeatTheClock(ctx, s); err != nil {
				return apperrors.NewPersistenceError("import beat-the-clock score", err)
			}
		}
		if _, err := e.scores.PruneBeatTheClock(ctx, d, leaderboardKeep); err != nil {
			return apperrors.NewPersistenceError("prune beat-the-clock scores", err)
		}
	}
	for d, scores := range bundle.SpeedrunScores {
		for _, s := range scores {
			if _, err := e.scores.InsertSpeedrun(ctx, s); err != nil {
				return apperrors.NewPersistenceError("import speedrun score", err)
			}
		}
		if _, err := e.scores.PruneSpeedrun(ctx, d, leaderboardKeep); err != nil {
			return apperrors.NewPersistenceError("prune speedrun scores", err)
		}
	}

	for _, entry := range bundle.History {
		if err := e.history.Append(ctx, entry, historyCap); err != nil {
			return apperrors.NewPersistenceError("import history entry", err)
		}
	}
	log.Info("record bundle imported")
	return nil
}
