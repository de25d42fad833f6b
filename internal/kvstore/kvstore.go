package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a string-keyed key-value store over the kv table. Values are raw
// blobs; JSON helpers are provided for structured state (active session
// snapshots, trophy totals, timer recovery).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value and last-updated time for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("kvstore")

	var value []byte
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT value, updated_at FROM kv WHERE key = ?`, key).Scan(&value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		log.Error("failed to get key %q: %v", key, err)
		return nil, time.Time{}, apperrors.NewPersistenceError("kv get "+key, err)
	}
	return value, updatedAt, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	log := logger.FromContext(ctx).WithPrefix("kvstore")
	log.Debug("setting key %q (%d bytes)", key, len(value))

	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`, key, value)
	if err != nil {
		log.Error("failed to set key %q: %v", key, err)
		return apperrors.NewPersistenceError("kv set "+key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	log := logger.FromContext(ctx).WithPrefix("kvstore")
	log.Debug("deleting key %q", key)

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		log.Error("failed to delete key %q: %v", key, err)
		return apperrors.NewPersistenceError("kv delete "+key, err)
	}
	return nil
}

// GetJSON decodes the stored value into out and reports when it was written.
func (s *Store) GetJSON(ctx context.Context, key string, out any) (time.Time, error) {
	value, updatedAt, err := s.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(value, out); err != nil {
		return time.Time{}, apperrors.NewPersistenceError("kv decode "+key, err)
	}
	return updatedAt, nil
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewPersistenceError("kv encode "+key, err)
	}
	return s.Set(ctx, key, value)
}
