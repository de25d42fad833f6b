package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/records"
	"github.com/tbueno/florarush/internal/testutil"
)

func newLedger(t *testing.T) *records.TrophyLedger {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })
	return records.NewTrophyLedger(kvstore.New(db))
}

func TestTotals_EmptyLedger(t *testing.T) {
	ledger := newLedger(t)

	totals, err := ledger.Totals(context.Background())
	require.NoError(t, err)
	assert.Zero(t, totals.Total)
	assert.Empty(t, totals.History)
}

func TestAdd_Accumulates(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	ledger.Add(ctx, models.TrophyReward{Total: 120}, models.ModeBeatTheClock, models.DifficultyMedium)
	totals := ledger.Add(ctx, models.TrophyReward{Total: 80}, models.ModeSpeedrun, models.DifficultyHard)

	assert.Equal(t, 200, totals.Total)
	require.Len(t, totals.History, 2)
	// Newest first.
	assert.Equal(t, models.ModeSpeedrun, totals.History[0].Mode)
	assert.Equal(t, 80, totals.History[0].Amount)

	// The totals survive a reload.
	reloaded, err := ledger.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, reloaded.Total)
}

func TestAdd_CapsHistory(t *testing.T) {
	ledger := newLedger(t)
	ctx := context.Background()

	var totals records.TrophyTotals
	for i := 0; i < 60; i++ {
		totals = ledger.Add(ctx, models.TrophyReward{Total: 1}, models.ModeBeatTheClock, models.DifficultyEasy)
	}

	assert.Equal(t, 60, totals.Total)
	assert.Len(t, totals.History, 50)
}
