package kvstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbueno/florarush/internal/kvstore"
	"github.com/tbueno/florarush/internal/testutil"
)

func TestSetAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := kvstore.New(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "greeting", []byte("hello")))

	value, updatedAt, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), value)
	assert.False(t, updatedAt.IsZero())
}

func TestGet_Missing(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := kvstore.New(db)

	_, _, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestSet_Replaces(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := kvstore.New(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

func TestDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := kvstore.New(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestJSONRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := kvstore.New(db)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.SetJSON(ctx, "state", payload{Name: "fern", Count: 3}))

	var out payload
	updatedAt, err := store.GetJSON(ctx, "state", &out)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "fern", Count: 3}, out)
	assert.False(t, updatedAt.IsZero())
}
