package export

import (
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Route is what gets exported: the alternatives and the waypoint markers of a session.
type Route struct {
	Alternatives []models.Alternative
	Markers      []models.Waypoint
	Fallback     bool
}

// GeoJSON builds a FeatureCollection with one LineString per alternative, in order,
// followed by one Point per marker.
func GeoJSON(route Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, alt := range route.Alternatives {
		line := make(orb.LineString, 0, len(alt))
		for _, c := range alt {
			line = append(line, orb.Point{c.Longitude, c.Latitude})
		}

		feature := geojson.NewFeature(line)
		feature.Properties["index"] = i
		feature.Properties["fallback"] = route.Fallback
		fc.Append(feature)
	}

	for _, marker := range route.Markers {
		feature := geojson.NewFeature(orb.Point{marker.Longitude, marker.Latitude})
		feature.Properties["name"] = markerName(marker)
		fc.Append(feature)
	}

	return fc
}

func markerName(marker models.Waypoint) string {
	if marker.Name == "" {
		return "POI"
	}
	return marker.Name
}
