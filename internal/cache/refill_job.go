package cache

import "context"

// RefillJob prefetches one remote page into the cache. Submitted to the
// worker pool when a difficulty band runs thin.
type RefillJob struct {
	Cache *PlantCache
}

func (j RefillJob) Name() string { return "cache-refill" }

func (j RefillJob) Run(ctx context.Context) error {
	return j.Cache.Prefetch(ctx)
}
