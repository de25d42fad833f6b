package models

import "time"

// Plant is an immutable identification record. The first common name is the
// canonical display name.
type Plant struct {
	ID              string   `json:"id"`
	ScientificName  string   `json:"scientific_name"`
	CommonNames     []string `json:"common_names"`
	Family          string   `json:"family"`
	Genus           string   `json:"genus"`
	Species         string   `json:"species"`
	ImageURL        string   `json:"image_url"`
	DifficultyScore int      `json:"difficulty_score"` // 1-100
	Rarity          string   `json:"rarity"`           // "common", "uncommon", "rare", "legendary"
	Habitats        []string `json:"habitats"`
	Regions         []string `json:"regions"`
	SourceID        string   `json:"source_id,omitempty"` // external taxonomy id, if any
}

// DisplayName returns the canonical common name, falling back to the
// scientific name when no common names exist.
func (p Plant) DisplayName() string {
	if len(p.CommonNames) > 0 {
		return p.CommonNames[0]
	}
	return p.ScientificName
}

// CachedPlant is a Plant as held by the cache, with the two mutable
// bookkeeping fields used for usage-weighted eviction.
type CachedPlant struct {
	Plant
	UseCount int       `json:"use_count"`
	LastUsed time.Time `json:"last_used"`
	CachedAt time.Time `json:"cached_at"`
}

// CacheStatistics is a read-only aggregate computed on demand from the cache
// store. It is never persisted.
type CacheStatistics struct {
	Count          int        `json:"count"`
	EstimatedBytes int64      `json:"estimated_bytes"`
	OldestCachedAt *time.Time `json:"oldest_cached_at"`
	NewestCachedAt *time.Time `json:"newest_cached_at"`
	MeanUseCount   float64    `json:"mean_use_count"`
}
