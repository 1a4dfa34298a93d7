package export

import (
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/paulmach/orb"
)

// defaultDelta is the span used when there is nothing to fit.
const defaultDelta = 0.05

// regionPadding widens the fitted bounds so lines don't touch the map edge.
const regionPadding = 1.5

// Region is a map viewport: a centre and the latitude/longitude spans around it.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// FitRegion frames every point of the alternatives together with the current location.
// Without route points the region is centred on current (or the origin of the
// coordinate system when current is nil).
func FitRegion(alternatives []models.Alternative, current *models.Coordinate) Region {
	points := make(orb.MultiPoint, 0)
	for _, alt := range alternatives {
		for _, c := range alt {
			points = append(points, orb.Point{c.Longitude, c.Latitude})
		}
	}

	if len(points) == 0 {
		region := Region{LatitudeDelta: defaultDelta, LongitudeDelta: defaultDelta}
		if current != nil {
			region.Latitude, region.Longitude = current.Latitude, current.Longitude
		}
		return region
	}

	if current != nil {
		points = append(points, orb.Point{current.Longitude, current.Latitude})
	}

	bound := points.Bound()
	center := bound.Center()

	return Region{
		Latitude:       center.Lat(),
		Longitude:      center.Lon(),
		LatitudeDelta:  spanOrDefault(bound.Top() - bound.Bottom()),
		LongitudeDelta: spanOrDefault(bound.Right() - bound.Left()),
	}
}

func spanOrDefault(span float64) float64 {
	if span == 0 {
		return defaultDelta
	}
	return span * regionPadding
}
