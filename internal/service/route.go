package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/UnknownOlympus/wayly/internal/export"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/poi"
	"github.com/UnknownOlympus/wayly/internal/resolver"
	"github.com/UnknownOlympus/wayly/internal/session"
	"github.com/UnknownOlympus/wayly/internal/waypoints"
)

// Catalog is the part of the POI catalog the route service uses.
type Catalog interface {
	Nearby(ctx context.Context, location models.Coordinate, rangeKm float64) ([]models.POI, error)
	UpdateRating(ctx context.Context, id string, rating float64) (*models.POI, error)
	Create(ctx context.Context, p models.POI) (*models.POI, error)
}

// RouteView is the displayed route together with what a map needs to draw it.
type RouteView struct {
	session.State
	Polylines []string      `json:"polylines"`
	Region    export.Region `json:"region"`
}

// RouteService ties the device location, the waypoint store, the route session and
// the POI catalog together for one user.
type RouteService struct {
	log        *slog.Logger
	store      *waypoints.Store
	controller *session.Controller
	catalog    Catalog
	poiLimit   int

	mu       sync.RWMutex
	location *models.Coordinate
	created  int
}

// NewRouteService creates a RouteService. catalog may be nil when no catalog is configured.
// poiLimit caps how many POIs CreatePOI accepts; zero or less means no cap.
func NewRouteService(
	log *slog.Logger,
	store *waypoints.Store,
	controller *session.Controller,
	catalog Catalog,
	poiLimit int,
) *RouteService {
	return &RouteService{log: log, store: store, controller: controller, catalog: catalog, poiLimit: poiLimit}
}

// SetLocation records the device location.
func (rs *RouteService) SetLocation(location models.Coordinate) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.location = &location
}

// Location returns a copy of the device location, or nil when unknown.
func (rs *RouteService) Location() *models.Coordinate {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if rs.location == nil {
		return nil
	}
	location := *rs.location
	return &location
}

// Waypoints returns the current route steps.
func (rs *RouteService) Waypoints() []models.Waypoint {
	return rs.store.Snapshot()
}

// AddWaypoint appends a route step unless one exists at the same position.
func (rs *RouteService) AddWaypoint(wp models.Waypoint) []models.Waypoint {
	return rs.store.Add(wp)
}

// RemoveWaypoint removes every step at the waypoint's position.
func (rs *RouteService) RemoveWaypoint(wp models.Waypoint) []models.Waypoint {
	return rs.store.Remove(wp)
}

// ClearWaypoints empties the route steps.
func (rs *RouteService) ClearWaypoints() {
	rs.store.Clear()
}

// Submit requests routes from origin to destination. An explicitly named origin
// becomes the new device location when the submission produced the displayed route.
func (rs *RouteService) Submit(ctx context.Context, origin, destination string) session.Outcome {
	outcome := rs.controller.Submit(ctx, origin, destination, rs.Location())

	published := outcome.Status == session.StatusSuccess || outcome.Status == session.StatusFailed
	if published && outcome.Origin != nil && outcome.Origin.Source != models.SourceCurrent {
		rs.SetLocation(outcome.Origin.Coordinate)
		rs.log.DebugContext(ctx, "Location moved to resolved origin", "name", outcome.Origin.Name)
	}

	return outcome
}

// Route returns the displayed route with encoded polylines and the fitted map region.
func (rs *RouteService) Route() RouteView {
	state := rs.controller.View()

	polylines := make([]string, 0, len(state.Alternatives))
	for _, alt := range state.Alternatives {
		polylines = append(polylines, export.EncodePolyline(alt))
	}

	return RouteView{
		State:     state,
		Polylines: polylines,
		Region:    export.FitRegion(state.Alternatives, rs.Location()),
	}
}

// ExportRoute returns the displayed route in export form.
func (rs *RouteService) ExportRoute() export.Route {
	state := rs.controller.View()
	return export.Route{Alternatives: state.Alternatives, Markers: state.Markers, Fallback: state.Fallback}
}

// ResetRoute clears the displayed route and discards any in-flight result.
func (rs *RouteService) ResetRoute() {
	rs.controller.Reset()
}

// NearbyPOIs lists catalog POIs around the device location, optionally filtered by category.
func (rs *RouteService) NearbyPOIs(
	ctx context.Context,
	rangeKm float64,
	categories ...models.Category,
) ([]models.POI, error) {
	if rs.catalog == nil {
		return nil, ErrCatalogDisabled
	}

	location := rs.Location()
	if location == nil {
		return nil, resolver.ErrMissingLocation
	}

	pois, err := rs.catalog.Nearby(ctx, *location, rangeKm)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nearby points of interest: %w", err)
	}

	return poi.Filter(pois, categories...), nil
}

// RatePOI stores a new rating for a catalog POI.
func (rs *RouteService) RatePOI(ctx context.Context, id string, rating float64) (*models.POI, error) {
	if rs.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, rating)
	}

	return rs.catalog.UpdateRating(ctx, id, rating)
}

// CreatePOI adds a POI to the catalog. A missing rating is stored as zero.
func (rs *RouteService) CreatePOI(ctx context.Context, p models.POI) (*models.POI, error) {
	if rs.catalog == nil {
		return nil, ErrCatalogDisabled
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, ErrPOINameRequired
	}
	if !p.Waypoint().Valid() {
		return nil, fmt.Errorf("%w: %v,%v", ErrInvalidCoordinate, p.Latitude, p.Longitude)
	}
	if p.Rating == nil {
		zero := 0.0
		p.Rating = &zero
	}
	if *p.Rating < MinRating || *p.Rating > MaxRating {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, *p.Rating)
	}

	if !rs.reservePOI() {
		return nil, fmt.Errorf("%w: %d", ErrPOILimitReached, rs.poiLimit)
	}

	created, err := rs.catalog.Create(ctx, p)
	if err != nil {
		rs.releasePOI()
		return nil, fmt.Errorf("failed to create point of interest: %w", err)
	}

	return created, nil
}

// reservePOI takes one slot of the POI cap so concurrent creations cannot exceed it.
func (rs *RouteService) reservePOI() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.poiLimit > 0 && rs.created >= rs.poiLimit {
		return false
	}
	rs.created++
	return true
}

func (rs *RouteService) releasePOI() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.created--
}
