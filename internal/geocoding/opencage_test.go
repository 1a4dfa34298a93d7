package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayly/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(_ *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
	}
}

func TestOpenCageProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	apiKey := "test-api-key"
	unlimited := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), geocoding.OpenCageBaseURL)
				assert.Equal(t, "Braga", req.URL.Query().Get("q"))
				assert.Equal(t, apiKey, req.URL.Query().Get("key"))
				assert.Equal(t, "pt", req.URL.Query().Get("countrycode"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))

				return respond(http.StatusOK, `{"results":[
					{"geometry":{"lat":41.5454,"lng":-8.4265},"formatted":"Braga, Portugal"},
					{"geometry":{"lat":1,"lng":1},"formatted":"elsewhere"}]}`)(req)
			},
		}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		place, err := provider.Geocode(ctx, "Braga")

		require.NoError(t, err)
		assert.InEpsilon(t, 41.5454, place.Latitude, 1e-6)
		assert.InEpsilon(t, -8.4265, place.Longitude, 1e-6)
		assert.Equal(t, "Braga, Portugal", place.Name)
		assert.Equal(t, "geocoder", place.Source)
	})

	t.Run("empty results", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `{"results":[]}`)}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		place, err := provider.Geocode(ctx, "Atlantis")

		assert.Nil(t, place)
		require.ErrorIs(t, err, geocoding.ErrOpenCageEmptyResponse)
	})

	t.Run("unauthorized", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusUnauthorized, `invalid key`)}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		_, err := provider.Geocode(ctx, "Braga")

		require.ErrorIs(t, err, geocoding.ErrOpenCageUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusServiceUnavailable, `down`)}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		_, err := provider.Geocode(ctx, "Braga")

		require.ErrorContains(t, err, "opencage API returned status 503")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `not json`)}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		_, err := provider.Geocode(ctx, "Braga")

		require.ErrorContains(t, err, "failed to decode opencage response")
	})

	t.Run("transport error", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return nil, assert.AnError
		}}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		_, err := provider.Geocode(ctx, "Braga")

		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("empty query", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			t.Fatal("HTTP client should not be called for an empty query")
			return nil, nil
		}}

		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", unlimited, logger)
		_, err := provider.Geocode(ctx, "")

		require.ErrorIs(t, err, geocoding.ErrOpenCageEmptyQuery)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		mockClient := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			t.Fatal("HTTP client should not be called when rate limit blocks")
			return nil, nil
		}}

		limiter := rate.NewLimiter(rate.Every(time.Second), 1)
		provider := geocoding.NewOpenCageProviderWithClient(mockClient, apiKey, "pt", limiter, logger)
		_, err := provider.Geocode(cancelled, "Braga")

		require.ErrorContains(t, err, "rate limit exceeded")
	})
}
