package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
)

const plantColumns = `id, scientific_name, common_names, family, genus, species, image_url,
difficulty_score, rarity, habitats, regions, source_id, use_count, last_used, cached_at`

type plantRepository struct {
	db *sql.DB
}

// NewPlantRepository creates a new PlantRepository implementation
func NewPlantRepository(db *sql.DB) repository.PlantRepository {
	return &plantRepository{db: db}
}

func scanPlant(scan func(...any) error) (models.CachedPlant, error) {
	var p models.CachedPlant
	var commonNames, habitats, regions string
	var lastUsed sql.NullTime
	err := scan(&p.ID, &p.ScientificName, &commonNames, &p.Family, &p.Genus, &p.Species,
		&p.ImageURL, &p.DifficultyScore, &p.Rarity, &habitats, &regions, &p.SourceID,
		&p.UseCount, &lastUsed, &p.CachedAt)
	if err != nil {
		return p, err
	}
	p.CommonNames = unmarshalStrings(commonNames)
	p.Habitats = unmarshalStrings(habitats)
	p.Regions = unmarshalStrings(regions)
	if lastUsed.Valid {
		p.LastUsed = lastUsed.Time
	}
	return p, nil
}

func (r *plantRepository) Get(ctx context.Context, id string) (*models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("getting plant: id=%s", id)

	row := r.db.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = ?`, id)
	p, err := scanPlant(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("plant not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get plant: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *plantRepository) Upsert(ctx context.Context, p models.CachedPlant) error {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("upserting plant: id=%s, difficulty=%d", p.ID, p.DifficultyScore)

	var lastUsed any
	if !p.LastUsed.IsZero() {
		lastUsed = p.LastUsed
	}
	cachedAt := p.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now()
	}

	// Updating an existing row keeps its usage bookkeeping and cache time.
	_, err := r.db.ExecContext(ctx, `
INSERT INTO plants (`+plantColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    scientific_name = excluded.scientific_name,
    common_names = excluded.common_names,
    family = excluded.family,
    genus = excluded.genus,
    species = excluded.species,
    image_url = excluded.image_url,
    difficulty_score = excluded.difficulty_score,
    rarity = excluded.rarity,
    habitats = excluded.habitats,
    regions = excluded.regions,
    source_id = excluded.source_id
`, p.ID, p.ScientificName, marshalStrings(p.CommonNames), p.Family, p.Genus, p.Species,
		p.ImageURL, p.DifficultyScore, p.Rarity, marshalStrings(p.Habitats), marshalStrings(p.Regions),
		p.SourceID, p.UseCount, lastUsed, cachedAt)
	if err != nil {
		log.Error("failed to upsert plant: %v", err)
	}
	return err
}

func (r *plantRepository) UpsertBatch(ctx context.Context, plants []models.CachedPlant) error {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("upserting %d plants", len(plants))

	return tx(ctx, r.db, func(txn *sql.Tx) error {
		for _, p := range plants {
			var lastUsed any
			if !p.LastUsed.IsZero() {
				lastUsed = p.LastUsed
			}
			cachedAt := p.CachedAt
			if cachedAt.IsZero() {
				cachedAt = time.Now()
			}
			_, err := txn.ExecContext(ctx, `
INSERT INTO plants (`+plantColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    scientific_name = excluded.scientific_name,
    common_names = excluded.common_names,
    family = excluded.family,
    genus = excluded.genus,
    species = excluded.species,
    image_url = excluded.image_url,
    difficulty_score = excluded.difficulty_score,
    rarity = excluded.rarity,
    habitats = excluded.habitats,
    regions = excluded.regions,
    source_id = excluded.source_id
`, p.ID, p.ScientificName, marshalStrings(p.CommonNames), p.Family, p.Genus, p.Species,
				p.ImageURL, p.DifficultyScore, p.Rarity, marshalStrings(p.Habitats), marshalStrings(p.Regions),
				p.SourceID, p.UseCount, lastUsed, cachedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *plantRepository) selectPlants(ctx context.Context, query squirrel.SelectBuilder) ([]models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query plants: %v", err)
		return nil, err
	}
	defer rows.Close()

	var plants []models.CachedPlant
	for rows.Next() {
		p, err := scanPlant(rows.Scan)
		if err != nil {
			log.Error("failed to scan plant row: %v", err)
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

func (r *plantRepository) SelectByBand(ctx context.Context, minScore, maxScore, limit int) ([]models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("selecting plants by band: %d-%d, limit=%d", minScore, maxScore, limit)

	// NULL last_used sorts first in ASC order, so never-shown plants win ties.
	return r.selectPlants(ctx, sqlBuilder.Select(plantColumns).From("plants").
		Where(squirrel.GtOrEq{"difficulty_score": minScore}).
		Where(squirrel.LtOrEq{"difficulty_score": maxScore}).
		OrderBy("use_count ASC", "last_used ASC").
		Limit(uint64(limit)))
}

func (r *plantRepository) SelectAny(ctx context.Context, limit int) ([]models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("selecting any plants: limit=%d", limit)

	return r.selectPlants(ctx, sqlBuilder.Select(plantColumns).From("plants").
		OrderBy("use_count ASC", "last_used ASC").
		Limit(uint64(limit)))
}

func (r *plantRepository) SelectByFamily(ctx context.Context, family, excludeID string, limit int) ([]models.CachedPlant, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("selecting plants by family: family=%s, exclude=%s, limit=%d", family, excludeID, limit)

	return r.selectPlants(ctx, sqlBuilder.Select(plantColumns).From("plants").
		Where(squirrel.Eq{"family": family}).
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("use_count ASC", "last_used ASC").
		Limit(uint64(limit)))
}

func (r *plantRepository) RecordUsage(ctx context.Context, id string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("recording usage: id=%s", id)

	res, err := r.db.ExecContext(ctx, `
UPDATE plants SET use_count = use_count + 1, last_used = ? WHERE id = ?
`, at, id)
	if err != nil {
		log.Error("failed to record usage: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Debug("usage recorded for unknown plant: id=%s", id)
	}
	return nil
}

func (r *plantRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plants`).Scan(&n)
	return n, err
}

func (r *plantRepository) EvictBeyond(ctx context.Context, maxSize int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")

	count, err := r.Count(ctx)
	if err != nil {
		log.Error("failed to count plants before eviction: %v", err)
		return 0, err
	}
	excess := count - maxSize
	if excess <= 0 {
		return 0, nil
	}

	// Remove the lowest-ranked excess entries.
	res, err := r.db.ExecContext(ctx, `
DELETE FROM plants WHERE id IN (
    SELECT id FROM plants ORDER BY use_count ASC, last_used ASC LIMIT ?
)
`, excess)
	if err != nil {
		log.Error("failed to evict plants: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	log.Info("evicted %d plants (cache size %d > max %d)", n, count, maxSize)
	return int(n), nil
}

func (r *plantRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("deleting plants cached before %v", cutoff)

	res, err := r.db.ExecContext(ctx, `DELETE FROM plants WHERE cached_at < ?`, cutoff)
	if err != nil {
		log.Error("failed to delete old plants: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info("deleted %d stale plants", n)
	}
	return int(n), nil
}

func (r *plantRepository) Statistics(ctx context.Context) (*models.CacheStatistics, error) {
	log := logger.FromContext(ctx).WithPrefix("plant_repo")
	log.Debug("computing cache statistics")

	stats := &models.CacheStatistics{}
	var oldest, newest sql.NullTime
	var meanUse sql.NullFloat64
	var bytes sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       MIN(cached_at),
       MAX(cached_at),
       AVG(use_count),
       SUM(LENGTH(scientific_name) + LENGTH(common_names) + LENGTH(family) + LENGTH(genus)
           + LENGTH(species) + LENGTH(image_url) + LENGTH(habitats) + LENGTH(regions) + 64)
FROM plants
`).Scan(&stats.Count, &oldest, &newest, &meanUse, &bytes)
	if err != nil {
		log.Error("failed to compute cache statistics: %v", err)
		return nil, err
	}
	if oldest.Valid {
		stats.OldestCachedAt = &oldest.Time
	}
	if newest.Valid {
		stats.NewestCachedAt = &newest.Time
	}
	if meanUse.Valid {
		stats.MeanUseCount = meanUse.Float64
	}
	if bytes.Valid {
		stats.EstimatedBytes = bytes.Int64
	}
	return stats, nil
}
