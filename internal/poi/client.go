package poi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/wayly/internal/models"
)

// DefaultRangeKm is the search radius used when none is given.
const DefaultRangeKm = 50

// Catalog API errors.
var (
	ErrUnauthorized = errors.New("poi catalog rejected the token")
	ErrNotFound     = errors.New("point of interest not found")
	ErrEmptyID      = errors.New("point of interest id is empty")
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the points-of-interest catalog.
type Client struct {
	client   HTTPClient
	endpoint string
	token    string
	log      *slog.Logger
}

// NewClient creates a catalog client with a 10 second timeout.
func NewClient(endpoint, token string, log *slog.Logger) *Client {
	const timeout = 10

	return NewClientWithHTTP(&http.Client{Timeout: timeout * time.Second}, endpoint, token, log)
}

// NewClientWithHTTP allows injecting a custom HTTP client.
func NewClientWithHTTP(client HTTPClient, endpoint, token string, log *slog.Logger) *Client {
	return &Client{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		log:      log,
	}
}

// Nearby lists POIs within rangeKm of location, enriched, in catalog order.
// POIs without an image are dropped.
func (c *Client) Nearby(ctx context.Context, location models.Coordinate, rangeKm float64) ([]models.POI, error) {
	if rangeKm <= 0 {
		rangeKm = DefaultRangeKm
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(location.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(location.Longitude, 'f', -1, 64))
	params.Set("range", strconv.FormatFloat(rangeKm, 'f', -1, 64))

	var pois []models.POI
	if err := c.do(ctx, http.MethodGet, "/points-of-interest?"+params.Encode(), nil, &pois); err != nil {
		return nil, fmt.Errorf("failed to list points of interest: %w", err)
	}

	listed := make([]models.POI, 0, len(pois))
	for _, p := range pois {
		p = Enrich(p, location)
		if p.ImageURL == "" {
			continue
		}
		listed = append(listed, p)
	}

	c.log.DebugContext(ctx, "Listed points of interest", "received", len(pois), "kept", len(listed))

	return listed, nil
}

// Get fetches one POI as stored in the catalog.
func (c *Client) Get(ctx context.Context, id string) (*models.POI, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var p models.POI
	if err := c.do(ctx, http.MethodGet, "/points-of-interest/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fmt.Errorf("failed to get point of interest %s: %w", id, err)
	}
	return &p, nil
}

// UpdateRating reads the POI, sets its rating and writes it back.
func (c *Client) UpdateRating(ctx context.Context, id string, rating float64) (*models.POI, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Rating = &rating

	var updated models.POI
	if err = c.do(ctx, http.MethodPut, "/points-of-interest/"+url.PathEscape(id), p, &updated); err != nil {
		return nil, fmt.Errorf("failed to update point of interest %s: %w", id, err)
	}

	c.log.InfoContext(ctx, "Updated point of interest rating", "id", id, "rating", rating)

	return &updated, nil
}

type createRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Metadata  string  `json:"metadata"`
	Rating    float64 `json:"rating"`
}

// Create stores a new POI in the catalog. When the catalog answers without a body the
// submitted fields are returned.
func (c *Client) Create(ctx context.Context, p models.POI) (*models.POI, error) {
	req := createRequest{
		Name:      p.Name,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Metadata:  p.Metadata,
	}
	if p.Rating != nil {
		req.Rating = *p.Rating
	}

	created := models.POI{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Metadata:  req.Metadata,
		Rating:    &req.Rating,
	}
	if err := c.do(ctx, http.MethodPost, "/points-of-interest", req, &created); err != nil {
		return nil, fmt.Errorf("failed to create point of interest %s: %w", p.Name, err)
	}

	c.log.InfoContext(ctx, "Created point of interest", "id", created.ID, "name", created.Name)

	return &created, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Token", c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		data, _ := io.ReadAll(resp.Body)
		c.log.ErrorContext(ctx, "POI catalog error", "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("poi catalog returned status %d: %s", resp.StatusCode, string(data))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
