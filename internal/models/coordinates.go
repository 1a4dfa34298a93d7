package models

import "math"

// Coordinate represents a geographical point in degrees, latitude first.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`       // Latitude of the geographical point.
	Longitude float64 `json:"longitude"`      // Longitude of the geographical point.
	Name      string  `json:"name,omitempty"` // Name is an optional display label.
}

// SamePosition reports whether both coordinates share the exact latitude/longitude pair.
// Labels are ignored.
func (c Coordinate) SamePosition(other Coordinate) bool {
	return c.Latitude == other.Latitude && c.Longitude == other.Longitude
}

// DegreeDistance returns the planar Euclidean distance between two coordinates in degrees.
func (c Coordinate) DegreeDistance(other Coordinate) float64 {
	return math.Hypot(c.Latitude-other.Latitude, c.Longitude-other.Longitude)
}

// Valid reports whether latitude is within ±90 and longitude within ±180.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// LonLat returns the pair in [longitude, latitude] order used by GeoJSON and the directions API.
func (c Coordinate) LonLat() [2]float64 {
	return [2]float64{c.Longitude, c.Latitude}
}

// Resolution paths of a Place.
const (
	SourceCurrent  = "current"
	SourcePreset   = "preset"
	SourceGeocoder = "geocoder"
	SourceCache    = "cache"
)

// Place is the outcome of resolving a free-text query.
type Place struct {
	Coordinate
	Source string `json:"source"` // Source is the resolution path, one of the Source constants.
}
