package poi

import (
	"regexp"
	"strings"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var imageURLPattern = regexp.MustCompile(`image_url=([^\s|]+)`)

// ImageURL extracts the image_url=<value> entry from POI metadata.
func ImageURL(metadata string) string {
	match := imageURLPattern.FindStringSubmatch(metadata)
	if match == nil {
		return ""
	}
	return match[1]
}

// Description is the metadata text before the first '|'.
func Description(metadata string) string {
	description, _, _ := strings.Cut(metadata, "|")
	return strings.TrimSpace(description)
}

// Classify guesses the category from the name and metadata keywords.
func Classify(name, metadata string) models.Category {
	name, metadata = strings.ToLower(name), strings.ToLower(metadata)

	switch {
	case strings.Contains(name, "museu") || strings.Contains(metadata, "museu") ||
		strings.Contains(metadata, "galeria"):
		return models.CategoryMuseum
	case strings.Contains(name, "praia") || strings.Contains(metadata, "praia") ||
		strings.Contains(metadata, "atividade"):
		return models.CategoryActivity
	default:
		return models.CategoryRestaurant
	}
}

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(from, to models.Coordinate) float64 {
	const metersPerKm = 1000

	return geo.DistanceHaversine(
		orb.Point{from.Longitude, from.Latitude},
		orb.Point{to.Longitude, to.Latitude},
	) / metersPerKm
}

// Enrich fills the derived fields of p relative to the query location.
func Enrich(p models.POI, from models.Coordinate) models.POI {
	p.ImageURL = ImageURL(p.Metadata)
	p.Description = Description(p.Metadata)
	p.Category = Classify(p.Name, p.Metadata)
	p.DistanceKm = DistanceKm(from, models.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude})
	return p
}

// Filter keeps the POIs in any of the given categories; no categories keeps everything.
func Filter(pois []models.POI, categories ...models.Category) []models.POI {
	if len(categories) == 0 {
		return pois
	}

	kept := make([]models.POI, 0, len(pois))
	for _, p := range pois {
		for _, category := range categories {
			if p.Category == category {
				kept = append(kept, p)
				break
			}
		}
	}
	return kept
}
