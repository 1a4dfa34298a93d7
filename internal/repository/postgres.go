package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrPlaceNotCached is returned when the geocode cache has no entry for a query.
var ErrPlaceNotCached = errors.New("place is not cached")

// EnsureSchema creates the geocode cache table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			country    TEXT NOT NULL,
			query      TEXT NOT NULL,
			latitude   DOUBLE PRECISION NOT NULL,
			longitude  DOUBLE PRECISION NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (country, query)
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create geocode cache table: %w", err)
	}

	return nil
}

// FindPlace looks up a previously geocoded query. Queries are matched case-insensitively
// after trimming. It returns ErrPlaceNotCached when there is no entry.
func (r *Repository) FindPlace(ctx context.Context, country, query string) (*models.Place, error) {
	sql := `
		SELECT latitude, longitude, name
		FROM geocode_cache
		WHERE country = $1 AND query = $2;
	`

	place := models.Place{Source: models.SourceCache}
	err := r.db.QueryRow(ctx, sql, country, cacheKey(query)).
		Scan(&place.Latitude, &place.Longitude, &place.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlaceNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached place: %w", err)
	}

	r.log.DebugContext(ctx, "Geocode cache hit", "query", query, "name", place.Name)

	return &place, nil
}

// SavePlace stores or refreshes the geocoding result for a query.
func (r *Repository) SavePlace(ctx context.Context, country, query string, place models.Place) error {
	sql := `
		INSERT INTO geocode_cache (country, query, latitude, longitude, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (country, query) DO UPDATE
		SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			name = EXCLUDED.name,
			updated_at = now();
	`

	_, err := r.db.Exec(ctx, sql, country, cacheKey(query), place.Latitude, place.Longitude, place.Name)
	if err != nil {
		return fmt.Errorf("failed to save cached place: %w", err)
	}

	return nil
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
