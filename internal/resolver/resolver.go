package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/wayly/internal/geocoding"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// CurrentLocationKeyword selects the device location instead of a named place.
const CurrentLocationKeyword = "atual"

// CurrentLocationLabel names a place resolved from the device location.
const CurrentLocationLabel = "Localização atual"

// ErrMissingLocation is returned when the current location is requested but unknown.
var ErrMissingLocation = errors.New("current location is unavailable")

// UnresolvableLocationError is returned when neither a preset nor the geocoder
// could resolve a place name.
type UnresolvableLocationError struct {
	Text string
	Err  error
}

func (e *UnresolvableLocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not resolve location %q", e.Text)
	}
	return fmt.Sprintf("could not resolve location %q: %v", e.Text, e.Err)
}

func (e *UnresolvableLocationError) Unwrap() error {
	return e.Err
}

// Resolver turns free text into coordinates: current location, then presets,
// then the geocoding provider.
type Resolver struct {
	presets  Presets
	provider geocoding.Provider
	name     string
	duration *prometheus.HistogramVec
	log      *slog.Logger
}

// New creates a Resolver. duration may be nil; providerName labels its observations.
func New(
	presets Presets,
	provider geocoding.Provider,
	providerName string,
	duration *prometheus.HistogramVec,
	log *slog.Logger,
) *Resolver {
	return &Resolver{
		presets:  presets,
		provider: provider,
		name:     providerName,
		duration: duration,
		log:      log,
	}
}

// Resolve returns the coordinate for text. current is the device location and may be nil.
func (r *Resolver) Resolve(ctx context.Context, text string, current *models.Coordinate) (*models.Place, error) {
	trimmed := strings.TrimSpace(text)

	if trimmed == "" || strings.EqualFold(trimmed, CurrentLocationKeyword) {
		if current == nil {
			return nil, ErrMissingLocation
		}
		place := &models.Place{Coordinate: *current, Source: models.SourceCurrent}
		place.Name = CurrentLocationLabel
		return place, nil
	}

	if coord, ok := r.presets.Lookup(trimmed); ok {
		r.log.DebugContext(ctx, "Resolved place from presets", "text", trimmed, "name", coord.Name)
		return &models.Place{Coordinate: coord, Source: models.SourcePreset}, nil
	}

	start := time.Now()
	place, err := r.provider.Geocode(ctx, trimmed)
	if r.duration != nil {
		r.duration.WithLabelValues(r.name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		r.log.WarnContext(ctx, "Failed to geocode place", "text", trimmed, "error", err)
		return nil, &UnresolvableLocationError{Text: trimmed, Err: err}
	}

	if place.Name == "" {
		place.Name = trimmed
	}

	return place, nil
}
