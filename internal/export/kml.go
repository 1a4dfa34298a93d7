package export

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml/v2"
)

// WriteKML writes the route as a KML document: a "Route N" line per alternative and
// a point placemark per marker.
func WriteKML(w io.Writer, name string, route Route) error {
	children := []kml.Element{kml.Name(name)}

	for i, alt := range route.Alternatives {
		coords := make([]kml.Coordinate, 0, len(alt))
		for _, c := range alt {
			coords = append(coords, kml.Coordinate{Lon: c.Longitude, Lat: c.Latitude})
		}

		fields := []kml.Element{kml.Name(fmt.Sprintf("Route %d", i+1))}
		if route.Fallback {
			fields = append(fields, kml.Description("Direct line, no route was found"))
		}
		fields = append(fields, kml.LineString(
			kml.Tessellate(true),
			kml.Coordinates(coords...),
		))
		children = append(children, kml.Placemark(fields...))
	}

	for _, marker := range route.Markers {
		children = append(children, kml.Placemark(
			kml.Name(markerName(marker)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: marker.Longitude, Lat: marker.Latitude}),
			),
		))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}
