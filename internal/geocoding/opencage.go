package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/wayly/internal/models"
	"golang.org/x/time/rate"
)

// OpenCageBaseURL -- OpenCage geocoding API base URL.
const OpenCageBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageProvider implements geocoding using the OpenCage API.
type OpenCageProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the OpenCage API
	apiKey  string        // API key with geocoding access
	country string        // ISO country code restricting results
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for OpenCage provider.
var (
	ErrOpenCageEmptyResponse = errors.New("opencage API returned empty response")
	ErrOpenCageEmptyQuery    = errors.New("opencage provider got empty query")
	ErrOpenCageUnauthorized  = errors.New("opencage API unauthorized (invalid API key)")
)

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Formatted string `json:"formatted"`
	} `json:"results"`
}

// NewOpenCageProvider creates a new OpenCage geocoding provider.
func NewOpenCageProvider(apiKey, country string, rateLimit int, log *slog.Logger) *OpenCageProvider {
	const timeout = 10

	return NewOpenCageProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		apiKey,
		country,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewOpenCageProviderWithClient allows injecting custom HTTP client.
func NewOpenCageProviderWithClient(
	client HTTPClient,
	apiKey string,
	country string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *OpenCageProvider {
	return &OpenCageProvider{
		client:  client,
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		country: country,
		log:     log,
		limiter: limiter,
	}
}

// Geocode converts a place name into coordinates using the OpenCage API.
// Only the first result is considered.
func (op *OpenCageProvider) Geocode(ctx context.Context, query string) (*models.Place, error) {
	if query == "" {
		return nil, ErrOpenCageEmptyQuery
	}

	if err := op.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	op.log.DebugContext(ctx, "Geocoding using OpenCage", "query", query)

	reqURL, err := url.Parse(op.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("key", op.apiKey)
	params.Set("countrycode", op.country)
	params.Set("limit", "1")
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrOpenCageUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		op.log.ErrorContext(ctx, "OpenCage API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("opencage API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result openCageResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode opencage response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, ErrOpenCageEmptyResponse
	}

	first := result.Results[0]
	op.log.DebugContext(ctx, "OpenCage found result",
		"query", query, "lat", first.Geometry.Lat, "lon", first.Geometry.Lng)

	return &models.Place{
		Coordinate: models.Coordinate{
			Latitude:  first.Geometry.Lat,
			Longitude: first.Geometry.Lng,
			Name:      first.Formatted,
		},
		Source: models.SourceGeocoder,
	}, nil
}
