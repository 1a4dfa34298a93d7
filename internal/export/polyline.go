package export

import (
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes an alternative in the precision-5 polyline algorithm format.
func EncodePolyline(alt models.Alternative) string {
	coords := make([][]float64, 0, len(alt))
	for _, c := range alt {
		coords = append(coords, []float64{c.Latitude, c.Longitude})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline is the inverse of EncodePolyline.
func DecodePolyline(encoded string) (models.Alternative, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	alt := make(models.Alternative, 0, len(coords))
	for _, c := range coords {
		alt = append(alt, models.Coordinate{Latitude: c[0], Longitude: c[1]})
	}
	return alt, nil
}
