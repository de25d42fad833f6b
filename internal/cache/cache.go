package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
	"github.com/tbueno/florarush/internal/taxonomy"
)

const fetchPageSize = 30

// PlantCache is the offline-first candidate source. Candidates come from
// three tiers tried in order: cached records in the requested difficulty
// band, a remote fetch when the band runs thin, and cached records of any
// difficulty as last resort. Mutations are serialized through a single
// writer lock; reads see consistent repository snapshots.
type PlantCache struct {
	writeMu       sync.Mutex
	repo          repository.PlantRepository
	client        taxonomy.ClientInterface
	clock         clockwork.Clock
	maxSize       int
	minCandidates int
	nextPage      int
	pageMu        sync.Mutex
	log           *logger.Logger
}

type Options struct {
	MaxCacheSize  int // eviction threshold, default 500
	MinCandidates int // remote fallback threshold, default 4
}

func New(repo repository.PlantRepository, client taxonomy.ClientInterface, clock clockwork.Clock, opts Options) *PlantCache {
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = 500
	}
	if opts.MinCandidates <= 0 {
		opts.MinCandidates = 4
	}
	return &PlantCache{
		repo:          repo,
		client:        client,
		clock:         clock,
		maxSize:       opts.MaxCacheSize,
		minCandidates: opts.MinCandidates,
		nextPage:      1,
		log:           logger.Default().WithPrefix("cache"),
	}
}

// Candidates returns up to limit plants for the difficulty, least-used and
// least-recently-shown first. Returns a NO_DATA error only when every tier
// comes up empty.
func (c *PlantCache) Candidates(ctx context.Context, difficulty models.Difficulty, limit int) ([]models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("cache")
	minScore, maxScore := difficulty.Band()

	// Tier 1: cached records in the requested band.
	plants, err := c.repo.SelectByBand(ctx, minScore, maxScore, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("select candidates", err)
	}
	if len(plants) >= c.minCandidates {
		log.Debug("tier 1 served %d candidates for %s", len(plants), difficulty)
		return plants, nil
	}

	// Tier 2: remote fetch. Transient remote failures are absorbed; the
	// caller falls through to tier 3.
	log.Info("band %s thin (%d cached), fetching from remote", difficulty, len(plants))
	if err := c.fetchAndCache(ctx); err != nil {
		if apperrors.IsQuotaExceeded(err) {
			log.Warn("remote fetch skipped: %v", err)
		} else {
			log.Warn("remote fetch failed, falling back to cache: %v", err)
		}
	} else {
		plants, err = c.repo.SelectByBand(ctx, minScore, maxScore, limit)
		if err != nil {
			return nil, apperrors.NewPersistenceError("select candidates", err)
		}
		if len(plants) >= c.minCandidates {
			log.Debug("tier 2 served %d candidates for %s", len(plants), difficulty)
			return plants, nil
		}
	}

	// Tier 3: any cached difficulty.
	plants, err = c.repo.SelectAny(ctx, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("select fallback candidates", err)
	}
	if len(plants) == 0 {
		return nil, apperrors.NewNoDataError("no cached plants and remote source unavailable")
	}
	log.Debug("tier 3 served %d candidates", len(plants))
	return plants, nil
}

// DistractorNames returns up to n display names for wrong options, preferring
// plants from the same taxonomic family as the target, then any cached plant.
// The caller tops up with placeholders when the cache falls short.
func (c *PlantCache) DistractorNames(ctx context.Context, target models.Plant, n int) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("cache")

	seen := map[string]bool{target.DisplayName(): true}
	var names []string

	addAll := func(plants []models.CachedPlant) {
		for _, p := range plants {
			name := p.DisplayName()
			if len(names) >= n || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	if target.Family != "" {
		family, err := c.repo.SelectByFamily(ctx, target.Family, target.ID, n*2)
		if err != nil {
			return nil, apperrors.NewPersistenceError("select family distractors", err)
		}
		addAll(family)
	}

	if len(names) < n {
		any, err := c.repo.SelectAny(ctx, n*3)
		if err != nil {
			return nil, apperrors.NewPersistenceError("select distractors", err)
		}
		// Exclude the target itself, not just its display name.
		filtered := any[:0:0]
		for _, p := range any {
			if p.ID != target.ID {
				filtered = append(filtered, p)
			}
		}
		addAll(filtered)
	}

	log.Debug("found %d distractors for %s", len(names), target.ID)
	return names, nil
}

// CachePlants upserts the given plants by identifier and evicts the
// lowest-ranked entries once the store exceeds the size cap.
func (c *PlantCache) CachePlants(ctx context.Context, plants []models.Plant) error {
	if len(plants) == 0 {
		return nil
	}
	// Partial results from a cancelled fetch must not reach the store.
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	now := c.clock.Now()
	cached := make([]models.CachedPlant, 0, len(plants))
	for _, p := range plants {
		cached = append(cached, models.CachedPlant{Plant: p, CachedAt: now})
	}
	if err := c.repo.UpsertBatch(ctx, cached); err != nil {
		return apperrors.NewPersistenceError("cache plants", err)
	}
	if _, err := c.repo.EvictBeyond(ctx, c.maxSize); err != nil {
		return apperrors.NewPersistenceError("evict plants", err)
	}
	return nil
}

// RecordUsage bumps use_count and refreshes last_used. Called once per
// question actually shown, not per fetch.
func (c *PlantCache) RecordUsage(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.repo.RecordUsage(ctx, id, c.clock.Now()); err != nil {
		return apperrors.NewPersistenceError("record usage", err)
	}
	return nil
}

// ClearOlderThan removes entries cached before the cutoff.
func (c *PlantCache) ClearOlderThan(ctx context.Context, days int) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	cutoff := c.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := c.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.NewPersistenceError("clear old plants", err)
	}
	return n, nil
}

// Statistics computes the read-only cache aggregate on demand.
func (c *PlantCache) Statistics(ctx context.Context) (*models.CacheStatistics, error) {
	stats, err := c.repo.Statistics(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("cache statistics", err)
	}
	return stats, nil
}

// Prefetch pulls one remote page into the cache. Used by the background
// refill job.
func (c *PlantCache) Prefetch(ctx context.Context) error {
	return c.fetchAndCache(ctx)
}

func (c *PlantCache) fetchAndCache(ctx context.Context) error {
	c.pageMu.Lock()
	page := c.nextPage
	c.nextPage++
	c.pageMu.Unlock()

	plants, err := c.client.FetchPlants(ctx, page, fetchPageSize)
	if err != nil {
		return err
	}
	if len(plants) == 0 {
		// Ran off the end of the remote listing; start over.
		c.pageMu.Lock()
		c.nextPage = 1
		c.pageMu.Unlock()
		return nil
	}
	return c.CachePlants(ctx, plants)
}
