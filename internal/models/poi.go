package models

// Category classifies a point of interest for filtering.
type Category string

const (
	CategoryMuseum     Category = "museum"
	CategoryActivity   Category = "activity"
	CategoryRestaurant Category = "restaurant"
)

// POI is a point of interest as served by the catalog API.
type POI struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Metadata  string   `json:"metadata,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`

	// Derived locally from Metadata and the query location.
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
	DistanceKm  float64  `json:"distance_km,omitempty"`
}

// Waypoint converts the POI into a route step labelled with its name.
func (p POI) Waypoint() Waypoint {
	return Waypoint{Latitude: p.Latitude, Longitude: p.Longitude, Name: p.Name}
}
