package geocoding

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/wayly/internal/models"
)

// Provider is an interface that defines a method for geocoding a place name.
// Implementations return the first match inside their configured country scope.
type Provider interface {
	Geocode(ctx context.Context, query string) (*models.Place, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
