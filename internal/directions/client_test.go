package directions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayly/internal/directions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestClient_Route(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	request := directions.Request{
		Origin:      directions.Position{Coordinates: [2]float64{-8.70, 40.60}},
		Destination: directions.Position{Coordinates: [2]float64{-8.6538, 40.6405}},
		Steps:       []directions.Step{},
		UserID:      "user-1",
	}

	t.Run("successful request", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Equal(t, "https://routes.example/api", req.URL.String())
				assert.Equal(t, "secret", req.Header.Get("X-Api-Key"))
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

				var sent directions.Request
				require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
				assert.Equal(t, request, sent)

				return respond(http.StatusOK, `{"geometry":{"type":"LineString","coordinates":[]}}`)(req)
			},
		}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "secret", 0, logger)
		body, err := client.Route(ctx, request)

		require.NoError(t, err)
		assert.JSONEq(t, `{"geometry":{"type":"LineString","coordinates":[]}}`, string(body))
	})

	t.Run("unauthorized", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusUnauthorized, `nope`)}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "bad", 0, logger)
		body, err := client.Route(ctx, request)

		assert.Nil(t, body)
		require.ErrorIs(t, err, directions.ErrAuthFailure)
	})

	t.Run("server failure", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusBadGateway, `upstream down`)}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "secret", 0, logger)
		_, err := client.Route(ctx, request)

		require.ErrorIs(t, err, directions.ErrServerFailure)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("unexpected status", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusBadRequest, `bad payload`)}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "secret", 0, logger)
		_, err := client.Route(ctx, request)

		require.ErrorIs(t, err, directions.ErrUnexpectedStatus)
		assert.NotErrorIs(t, err, directions.ErrServerFailure)
	})

	t.Run("transport failure", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "secret", 0, logger)
		_, err := client.Route(ctx, request)

		require.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, directions.ErrTimeout)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := directions.NewClient(server.URL, "secret", 20*time.Millisecond, logger)
		_, err := client.Route(ctx, request)

		require.ErrorIs(t, err, directions.ErrTimeout)
	})

	t.Run("cancelled context is not a timeout", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		client := directions.NewClientWithHTTP(mockClient, "https://routes.example/api", "secret", 0, logger)
		_, err := client.Route(cancelled, request)

		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, directions.ErrTimeout)
	})
}
