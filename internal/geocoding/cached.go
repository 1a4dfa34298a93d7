package geocoding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

// CachedProvider answers repeated queries from the geocode cache and only calls the
// wrapped provider on a miss. Cache failures degrade to a provider call.
type CachedProvider struct {
	next    Provider
	cache   repository.Interface
	country string
	hits    prometheus.Counter
	log     *slog.Logger
}

// NewCachedProvider wraps next with the cache. hits may be nil.
func NewCachedProvider(
	next Provider,
	cache repository.Interface,
	country string,
	hits prometheus.Counter,
	log *slog.Logger,
) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, country: country, hits: hits, log: log}
}

func (cp *CachedProvider) Geocode(ctx context.Context, query string) (*models.Place, error) {
	place, err := cp.cache.FindPlace(ctx, cp.country, query)
	switch {
	case err == nil:
		if cp.hits != nil {
			cp.hits.Inc()
		}
		return place, nil
	case !errors.Is(err, repository.ErrPlaceNotCached):
		cp.log.WarnContext(ctx, "Geocode cache lookup failed", "query", query, "error", err)
	}

	place, err = cp.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	if err = cp.cache.SavePlace(ctx, cp.country, query, *place); err != nil {
		cp.log.WarnContext(ctx, "Could not store geocoding result", "query", query, "error", err)
	}

	return place, nil
}
