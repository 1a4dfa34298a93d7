package directions

import "github.com/UnknownOlympus/wayly/internal/models"

const (
	defaultStepLocation = "POI"
	defaultStepNotes    = "string"
)

// Position is an endpoint in the directions API's [lon, lat] convention.
type Position struct {
	Coordinates [2]float64 `json:"coordinates"`
}

// Step is an intermediate stop of the route.
type Step struct {
	Coordinates [2]float64 `json:"coordinates"`
	Location    string     `json:"location"`
	Notes       string     `json:"notes"`
}

// Request is the body of a routes API call.
type Request struct {
	Origin      Position `json:"origin"`
	Destination Position `json:"destination"`
	Steps       []Step   `json:"steps"`
	UserID      string   `json:"user_id"`
}

// BuildRequest assembles the payload for origin → waypoints → destination.
// Waypoint order is preserved and unnamed waypoints are labelled "POI".
func BuildRequest(origin, destination models.Coordinate, waypoints []models.Waypoint, userID string) Request {
	steps := make([]Step, 0, len(waypoints))
	for _, wp := range waypoints {
		location := wp.Name
		if location == "" {
			location = defaultStepLocation
		}
		steps = append(steps, Step{
			Coordinates: wp.LonLat(),
			Location:    location,
			Notes:       defaultStepNotes,
		})
	}

	return Request{
		Origin:      Position{Coordinates: origin.LonLat()},
		Destination: Position{Coordinates: destination.LonLat()},
		Steps:       steps,
		UserID:      userID,
	}
}
