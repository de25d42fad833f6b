package records

import (
	"context"
	"errors"
	"time"

	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
)

const (
	trophyTotalsKey  = "trophies:totals"
	trophyHistoryCap = 50
)

// TrophyEntry is one awarded reward in the trophy history.
type TrophyEntry struct {
	Mode       models.GameMode   `json:"mode"`
	Difficulty models.Difficulty `json:"difficulty"`
	Amount     int               `json:"amount"`
	AwardedAt  time.Time         `json:"awarded_at"`
}

// TrophyTotals is the persisted trophy state.
type TrophyTotals struct {
	Total   int           `json:"total"`
	History []TrophyEntry `json:"history"`
}

// TrophyLedger persists trophy totals and history in the key-value store.
// Saves are best-effort: a failed write degrades the feature, it never fails
// the session.
type TrophyLedger struct {
	kv  *kvstore.Store
	log *logger.Logger
}

func NewTrophyLedger(kv *kvstore.Store) *TrophyLedger {
	return &TrophyLedger{kv: kv, log: logger.Default().WithPrefix("trophies")}
}

// Add records a reward. Persistence errors are logged and swallowed.
func (l *TrophyLedger) Add(ctx context.Context, reward models.TrophyReward, mode models.GameMode, difficulty models.Difficulty) TrophyTotals {
	totals, err := l.Totals(ctx)
	if err != nil {
		l.log.Warn("could not load trophy totals, starting fresh: %v", err)
		totals = TrophyTotals{}
	}

	totals.Total += reward.Total
	totals.History = append([]TrophyEntry{{
		Mode:       mode,
		Difficulty: difficulty,
		Amount:     reward.Total,
		AwardedAt:  time.Now(),
	}}, totals.History...)
	if len(totals.History) > trophyHistoryCap {
		totals.History = totals.History[:trophyHistoryCap]
	}

	if err := l.kv.SetJSON(ctx, trophyTotalsKey, totals); err != nil {
		l.log.Warn("failed to persist trophy totals: %v", err)
	}
	return totals
}

// Totals returns the persisted trophy state, zero-valued when none exists.
func (l *TrophyLedger) Totals(ctx context.Context) (TrophyTotals, error) {
	var totals TrophyTotals
	_, err := l.kv.GetJSON(ctx, trophyTotalsKey, &totals)
	if errors.Is(err, kvstore.ErrNotFound) {
		return TrophyTotals{}, nil
	}
	if err != nil {
		return TrophyTotals{}, err
	}
	return totals, nil
}
