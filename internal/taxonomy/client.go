package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/logger"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/resilience"
)

// Client fetches candidate plant records from the remote taxonomy API. Every
// call first awaits the rate limiter, then executes inside the circuit
// breaker; no other component talks to the remote source directly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *resilience.RateLimiter
	breaker    *resilience.CircuitBreaker
	log        *logger.Logger
}

func New(baseURL string, timeout time.Duration, limiter *resilience.RateLimiter, breaker *resilience.CircuitBreaker) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    limiter,
		breaker:    breaker,
		log:        logger.Default().WithPrefix("taxonomy"),
	}
}

type taxonPhoto struct {
	MediumURL string `json:"medium_url"`
}

type taxonAncestor struct {
	Rank string `json:"rank"`
	Name string `json:"name"`
}

type taxonRecord struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	PreferredCommonName string          `json:"preferred_common_name"`
	Rank                string          `json:"rank"`
	ObservationsCount   int             `json:"observations_count"`
	DefaultPhoto        *taxonPhoto     `json:"default_photo"`
	Ancestors           []taxonAncestor `json:"ancestors"`
}

type taxaResp struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Results      []taxonRecord `json:"results"`
}

// FetchPlants retrieves one page of species-level plant records. Records
// without a photo are dropped since the game cannot show them.
func (c *Client) FetchPlants(ctx context.Context, page, perPage int) ([]models.Plant, error) {
	log := logger.FromContext(ctx).WithPrefix("taxonomy").WithField("page", page)

	if err := c.limiter.WaitIfNeeded(ctx); err != nil {
		log.Warn("rate limiter rejected fetch: %v", err)
		return nil, err
	}

	var plants []models.Plant
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		url := fmt.Sprintf("%s/taxa?rank=species&iconic_taxa=Plantae&order_by=observations_count&order=desc&per_page=%d&page=%d",
			c.baseURL, perPage, page)

		log.Debug("fetching taxa from: %s", url)
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			log.Error("failed to create request: %v", err)
			return apperrors.NewRemoteError("build taxa request", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Error("failed to fetch taxa: %v", err)
			return apperrors.NewRemoteError("fetch taxa", err)
		}
		defer resp.Body.Close()

		log.Debug("taxa response received in %v, status=%d", time.Since(start), resp.StatusCode)

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Warn("remote rate limited the request")
			return apperrors.NewQuotaExceededError("remote taxonomy API rate limited the request")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			log.Error("taxa request failed: status=%d, body=%s", resp.StatusCode, string(body))
			return apperrors.NewRemoteError(fmt.Sprintf("taxa status %d", resp.StatusCode), nil)
		}

		var out taxaResp
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			log.Error("failed to decode taxa response: %v", err)
			return apperrors.NewRemoteError("decode taxa response", err)
		}

		for _, rec := range out.Results {
			if p, ok := mapTaxon(rec); ok {
				plants = append(plants, p)
			}
		}
		log.Info("fetched %d usable plants from page %d (%d raw)", len(plants), page, len(out.Results))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plants, nil
}

// mapTaxon converts a raw taxon record into a Plant. Difficulty is derived
// from the observation count: widely observed species are easier to identify.
func mapTaxon(rec taxonRecord) (models.Plant, bool) {
	if rec.DefaultPhoto == nil || rec.DefaultPhoto.MediumURL == "" {
		return models.Plant{}, false
	}
	if rec.Name == "" {
		return models.Plant{}, false
	}

	var commonNames []string
	if rec.PreferredCommonName != "" {
		commonNames = append(commonNames, rec.PreferredCommonName)
	}

	var family, genus string
	for _, a := range rec.Ancestors {
		switch a.Rank {
		case "family":
			family = a.Name
		case "genus":
			genus = a.Name
		}
	}

	return models.Plant{
		ID:              fmt.Sprintf("inat-%d", rec.ID),
		ScientificName:  rec.Name,
		CommonNames:     commonNames,
		Family:          family,
		Genus:           genus,
		Species:         rec.Name,
		ImageURL:        rec.DefaultPhoto.MediumURL,
		DifficultyScore: difficultyFromObservations(rec.ObservationsCount),
		Rarity:          rarityFromObservations(rec.ObservationsCount),
		SourceID:        fmt.Sprintf("%d", rec.ID),
	}, true
}

func difficultyFromObservations(obs int) int {
	if obs < 1 {
		obs = 1
	}
	// log10 scale: ~100 for single observations, dropping toward 1 for the
	// most-observed species on the platform.
	score := 100 - int(math.Round(13*math.Log10(float64(obs))))
	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}
	return score
}

func rarityFromObservations(obs int) string {
	switch {
	case obs >= 100000:
		return "common"
	case obs >= 10000:
		return "uncommon"
	case obs >= 1000:
		return "rare"
	default:
		return "legendary"
	}
}
