package repository

import (
	"context"
	"time"

	"github.com/tbueno/florarush/internal/models"
)

// PlantRepository is the durable store beneath the plant cache. Row order for
// candidate selection is always (use_count asc, last_used asc) so rarely- and
// least-recently-shown plants surface first.
type PlantRepository interface {
	Get(ctx context.Context, id string) (*models.CachedPlant, error)
	Upsert(ctx context.Context, p models.CachedPlant) error
	UpsertBatch(ctx context.Context, plants []models.CachedPlant) error
	SelectByBand(ctx context.Context, minScore, maxScore, limit int) ([]models.CachedPlant, error)
	SelectAny(ctx context.Context, limit int) ([]models.CachedPlant, error)
	SelectByFamily(ctx context.Context, family, excludeID string, limit int) ([]models.CachedPlant, error)
	RecordUsage(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int, error)
	EvictBeyond(ctx context.Context, maxSize int) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Statistics(ctx context.Context) (*models.CacheStatistics, error)
}

// ScoreRepository keeps the top-25 leaderboards per difficulty.
type ScoreRepository interface {
	InsertBeatTheClock(ctx context.Context, s models.BeatTheClockScore) (int64, error)
	InsertSpeedrun(ctx context.Context, s models.SpeedrunScore) (int64, error)
	TopBeatTheClock(ctx context.Context, difficulty models.Difficulty, limit int) ([]models.BeatTheClockScore, error)
	TopSpeedrun(ctx context.Context, difficulty models.Difficulty, limit int) ([]models.SpeedrunScore, error)
	PruneBeatTheClock(ctx context.Context, difficulty models.Difficulty, keep int) (int, error)
	PruneSpeedrun(ctx context.Context, difficulty models.Difficulty, keep int) (int, error)
}

// PersonalBestRepository stores one best per (mode, difficulty) pair.
type PersonalBestRepository interface {
	Get(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) (*models.PersonalBest, error)
	Put(ctx context.Context, best models.PersonalBest) error
	Reset(ctx context.Context, mode models.GameMode, difficulty models.Difficulty) error
	All(ctx context.Context) ([]models.PersonalBest, error)
}

// HistoryRepository keeps the capped game history log.
type HistoryRepository interface {
	Append(ctx context.Context, e models.GameHistoryEntry, cap int) error
	List(ctx context.Context, limit int) ([]models.GameHistoryEntry, error)
}
