package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/wayly/internal/export"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/poi"
	"github.com/UnknownOlympus/wayly/internal/resolver"
	"github.com/UnknownOlympus/wayly/internal/service"
	"github.com/UnknownOlympus/wayly/internal/session"
	"github.com/gin-gonic/gin"
)

// Handler serves waypoints, the route session and nearby POIs.
type Handler struct {
	log *slog.Logger
	svc *service.RouteService
}

// NewHandler creates a new Handler.
func NewHandler(log *slog.Logger, svc *service.RouteService) *Handler {
	return &Handler{log: log, svc: svc}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("/api")
	{
		api.GET("/waypoints", h.ListWaypoints)
		api.POST("/waypoints", h.AddWaypoint)
		api.DELETE("/waypoints", h.RemoveWaypoint)
		api.DELETE("/waypoints/all", h.ClearWaypoints)

		api.GET("/location", h.GetLocation)
		api.POST("/location", h.SetLocation)

		api.POST("/route", h.SubmitRoute)
		api.GET("/route", h.GetRoute)
		api.DELETE("/route", h.ResetRoute)
		api.GET("/route.kml", h.GetRouteKML)
		api.GET("/route.geojson", h.GetRouteGeoJSON)

		api.GET("/pois", h.NearbyPOIs)
		api.POST("/pois", h.CreatePOI)
		api.PUT("/pois/:id/rating", h.RatePOI)
	}
}

type routeRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type ratingRequest struct {
	Rating *float64 `json:"rating" binding:"required"`
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Name      string   `json:"name"`
}

type createPOIRequest struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Metadata  string   `json:"metadata"`
	Rating    *float64 `json:"rating"`
}

// ListWaypoints returns the route steps.
func (h *Handler) ListWaypoints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"waypoints": h.svc.Waypoints()})
}

// AddWaypoint appends a route step.
func (h *Handler) AddWaypoint(c *gin.Context) {
	wp, ok := bindCoordinate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"waypoints": h.svc.AddWaypoint(wp)})
}

// RemoveWaypoint removes the route steps at the given position.
func (h *Handler) RemoveWaypoint(c *gin.Context) {
	wp, ok := bindCoordinate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"waypoints": h.svc.RemoveWaypoint(wp)})
}

// ClearWaypoints empties the route steps.
func (h *Handler) ClearWaypoints(c *gin.Context) {
	h.svc.ClearWaypoints()
	c.JSON(http.StatusOK, gin.H{"waypoints": []models.Waypoint{}})
}

// GetLocation returns the device location.
func (h *Handler) GetLocation(c *gin.Context) {
	location := h.svc.Location()
	if location == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": resolver.ErrMissingLocation.Error()})
		return
	}
	c.JSON(http.StatusOK, location)
}

// SetLocation records the device location.
func (h *Handler) SetLocation(c *gin.Context) {
	location, ok := bindCoordinate(c)
	if !ok {
		return
	}
	h.svc.SetLocation(location)
	c.JSON(http.StatusOK, location)
}

// SubmitRoute requests routes between two places.
func (h *Handler) SubmitRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := h.svc.Submit(c.Request.Context(), req.Origin, req.Destination)
	c.JSON(outcomeStatus(outcome), outcome)
}

// GetRoute returns the displayed route.
func (h *Handler) GetRoute(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Route())
}

// ResetRoute clears the displayed route.
func (h *Handler) ResetRoute(c *gin.Context) {
	h.svc.ResetRoute()
	c.Status(http.StatusNoContent)
}

// GetRouteKML exports the displayed route as KML.
func (h *Handler) GetRouteKML(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.google-earth.kml+xml")
	c.Header("Content-Disposition", `attachment; filename="route.kml"`)
	c.Status(http.StatusOK)

	if err := export.WriteKML(c.Writer, "Wayly route", h.svc.ExportRoute()); err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to export route", "error", err)
	}
}

// GetRouteGeoJSON exports the displayed route as a GeoJSON FeatureCollection.
func (h *Handler) GetRouteGeoJSON(c *gin.Context) {
	data, err := export.GeoJSON(h.svc.ExportRoute()).MarshalJSON()
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to export route", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export route"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// NearbyPOIs lists catalog POIs around the device location.
func (h *Handler) NearbyPOIs(c *gin.Context) {
	rangeKm := 0.0
	if raw := c.Query("range"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "range must be a positive number of kilometres"})
			return
		}
		rangeKm = parsed
	}

	var categories []models.Category
	for _, category := range c.QueryArray("category") {
		categories = append(categories, models.Category(category))
	}

	pois, err := h.svc.NearbyPOIs(c.Request.Context(), rangeKm, categories...)
	if err != nil {
		h.respondPOIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pois": pois})
}

// RatePOI updates the rating of a catalog POI.
func (h *Handler) RatePOI(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.svc.RatePOI(c.Request.Context(), c.Param("id"), *req.Rating)
	if err != nil {
		h.respondPOIError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CreatePOI adds a POI to the catalog.
func (h *Handler) CreatePOI(c *gin.Context) {
	var req createPOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.CreatePOI(c.Request.Context(), models.POI{
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Metadata:  req.Metadata,
		Rating:    req.Rating,
	})
	if err != nil {
		h.respondPOIError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) respondPOIError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidCoordinate),
		errors.Is(err, service.ErrPOINameRequired),
		errors.Is(err, poi.ErrEmptyID):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPOILimitReached):
		status = http.StatusForbidden
	case errors.Is(err, resolver.ErrMissingLocation):
		status = http.StatusConflict
	case errors.Is(err, poi.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrCatalogDisabled):
		status = http.StatusServiceUnavailable
	default:
		h.log.ErrorContext(c.Request.Context(), "POI catalog request failed", "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func bindCoordinate(c *gin.Context) (models.Coordinate, bool) {
	var req coordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Coordinate{}, false
	}

	coord := models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude, Name: req.Name}
	if !coord.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidCoordinate.Error()})
		return coord, false
	}
	return coord, true
}

func outcomeStatus(outcome session.Outcome) int {
	switch outcome.Status {
	case session.StatusRejected:
		switch {
		case errors.Is(outcome.Err, session.ErrThrottled):
			return http.StatusTooManyRequests
		case errors.Is(outcome.Err, session.ErrDestinationRequired):
			return http.StatusBadRequest
		default:
			return http.StatusConflict
		}
	case session.StatusInvalid:
		return http.StatusUnprocessableEntity
	case session.StatusSuperseded:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}
