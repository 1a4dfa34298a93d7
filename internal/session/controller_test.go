package session_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/wayly/internal/directions"
	"github.com/UnknownOlympus/wayly/internal/metrics"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/resolver"
	"github.com/UnknownOlympus/wayly/internal/session"
	"github.com/UnknownOlympus/wayly/internal/waypoints"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Geocode(ctx context.Context, query string) (*models.Place, error) {
	args := m.Called(ctx, query)
	place, _ := args.Get(0).(*models.Place)
	return place, args.Error(1)
}

// recordingRouter answers with a fixed body and records every request.
type recordingRouter struct {
	mu       sync.Mutex
	requests []directions.Request
	routeFn  func(ctx context.Context, req directions.Request) (json.RawMessage, error)
}

func (r *recordingRouter) Route(ctx context.Context, req directions.Request) (json.RawMessage, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.routeFn(ctx, req)
}

func (r *recordingRouter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func answer(body string, err error) func(context.Context, directions.Request) (json.RawMessage, error) {
	return func(_ context.Context, _ directions.Request) (json.RawMessage, error) {
		if err != nil {
			return nil, err
		}
		return json.RawMessage(body), nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	controller *session.Controller
	router     *recordingRouter
	provider   *mockProvider
	store      *waypoints.Store
	clock      *fakeClock
	metrics    *metrics.Metrics
}

const lineBody = `{"geometry":{"type":"LineString","coordinates":[[-8.70,40.60],[-8.68,40.62],[-8.6538,40.6405]]}}`

func newFixture(routeFn func(context.Context, directions.Request) (json.RawMessage, error)) *fixture {
	f := &fixture{
		router:   &recordingRouter{routeFn: routeFn},
		provider: &mockProvider{},
		store:    waypoints.NewStore(),
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	}
	res := resolver.New(resolver.DefaultPresets(), f.provider, "mock", nil, slog.Default())
	f.controller = session.NewController(res, f.router, f.store, session.Options{
		UserID:  "user-1",
		Now:     f.clock.Now,
		Metrics: f.metrics,
	}, slog.Default())
	return f
}

var here = &models.Coordinate{Latitude: 40.60, Longitude: -8.70}

func TestController_Submit(t *testing.T) {
	ctx := t.Context()

	t.Run("current location to preset", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))

		outcome := f.controller.Submit(ctx, "", "Aveiro", here)

		require.Equal(t, session.StatusSuccess, outcome.Status)
		require.NoError(t, outcome.Err)
		assert.NotEmpty(t, outcome.RequestID)
		assert.False(t, outcome.Fallback)
		assert.Equal(t, resolver.CurrentLocationLabel, outcome.Origin.Name)
		assert.Equal(t, "Aveiro", outcome.Destination.Name)

		require.Equal(t, 1, f.router.calls())
		req := f.router.requests[0]
		assert.Equal(t, [2]float64{-8.70, 40.60}, req.Origin.Coordinates)
		assert.Equal(t, [2]float64{-8.6538, 40.6405}, req.Destination.Coordinates)
		assert.Equal(t, "user-1", req.UserID)

		view := f.controller.View()
		assert.False(t, view.Submitting)
		require.Len(t, view.Alternatives, 1)
		assert.Len(t, view.Alternatives[0], 3)
		assert.Equal(t, models.Coordinate{Latitude: 40.60, Longitude: -8.70}, view.Alternatives[0][0])
		assert.Equal(t, "Found 1 route alternative(s).", view.Notice)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RouteSubmissions.WithLabelValues(session.OutcomeSuccess)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RouteAlternatives), 0)
		f.provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	})

	t.Run("waypoints are routed and become markers", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))
		f.store.Add(models.Waypoint{Latitude: 40.62, Longitude: -8.68, Name: "Museu"})
		f.store.Add(models.Waypoint{Latitude: 40.63, Longitude: -8.66})

		outcome := f.controller.Submit(ctx, "atual", "Aveiro", here)

		require.Equal(t, session.StatusSuccess, outcome.Status)
		req := f.router.requests[0]
		require.Len(t, req.Steps, 2)
		assert.Equal(t, "Museu", req.Steps[0].Location)
		assert.Equal(t, "POI", req.Steps[1].Location)
		assert.Equal(t, f.store.Snapshot(), f.controller.View().Markers)
	})

	t.Run("geocoded destination", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))
		braga := &models.Place{
			Coordinate: models.Coordinate{Latitude: 41.5454, Longitude: -8.4265, Name: "Braga, Portugal"},
			Source:     "geocoder",
		}
		f.provider.On("Geocode", mock.Anything, "Braga").Return(braga, nil).Once()

		outcome := f.controller.Submit(ctx, "Porto", " Braga ", here)

		require.Equal(t, session.StatusSuccess, outcome.Status)
		assert.Equal(t, [2]float64{-8.6291, 41.1579}, f.router.requests[0].Origin.Coordinates)
		assert.Equal(t, [2]float64{-8.4265, 41.5454}, f.router.requests[0].Destination.Coordinates)
		f.provider.AssertExpectations(t)
	})

	t.Run("second submission within the throttle window is a no-op", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))

		first := f.controller.Submit(ctx, "", "Aveiro", here)
		before := f.controller.View()
		f.clock.Advance(time.Second)
		second := f.controller.Submit(ctx, "", "Porto", here)

		assert.Equal(t, session.StatusSuccess, first.Status)
		assert.Equal(t, session.StatusRejected, second.Status)
		require.ErrorIs(t, second.Err, session.ErrThrottled)
		assert.Equal(t, 1, f.router.calls())
		assert.Equal(t, before, f.controller.View())

		f.clock.Advance(3 * time.Second)
		third := f.controller.Submit(ctx, "", "Porto", here)

		assert.Equal(t, session.StatusSuccess, third.Status)
		assert.Equal(t, 2, f.router.calls())
	})

	t.Run("empty destination is rejected without using the throttle", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))

		outcome := f.controller.Submit(ctx, "Porto", "   ", here)

		assert.Equal(t, session.StatusRejected, outcome.Status)
		require.ErrorIs(t, outcome.Err, session.ErrDestinationRequired)
		assert.Equal(t, "Please enter a destination.", outcome.Notice)
		assert.Zero(t, f.router.calls())

		outcome = f.controller.Submit(ctx, "Porto", "Aveiro", here)
		assert.Equal(t, session.StatusSuccess, outcome.Status)
	})

	t.Run("server failure falls back to a direct line", func(t *testing.T) {
		f := newFixture(answer("", fmt.Errorf("%w: status 500", directions.ErrServerFailure)))

		outcome := f.controller.Submit(ctx, "", "Aveiro", here)

		assert.Equal(t, session.StatusFailed, outcome.Status)
		require.ErrorIs(t, outcome.Err, directions.ErrServerFailure)
		assert.True(t, outcome.Fallback)
		assert.Equal(t, "The routes service is unavailable; showing a direct line.", outcome.Notice)

		view := f.controller.View()
		assert.False(t, view.Submitting)
		assert.True(t, view.Fallback)
		require.Len(t, view.Alternatives, 1)
		assert.Equal(t, models.Alternative{
			{Latitude: 40.60, Longitude: -8.70},
			{Latitude: 40.6405, Longitude: -8.6538},
		}, view.Alternatives[0])
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RouteSubmissions.WithLabelValues(session.OutcomeFailed)), 0)
	})

	t.Run("failure notices by class", func(t *testing.T) {
		tests := []struct {
			err    error
			notice string
		}{
			{directions.ErrAuthFailure, "Authentication with the routes service failed; showing a direct line."},
			{fmt.Errorf("%w: deadline", directions.ErrTimeout), "Could not reach the routes service; showing a direct line."},
			{assert.AnError, "Failed to send the route; showing a direct line."},
		}

		for _, tt := range tests {
			f := newFixture(answer("", tt.err))

			outcome := f.controller.Submit(ctx, "", "Aveiro", here)

			assert.Equal(t, session.StatusFailed, outcome.Status)
			assert.Equal(t, tt.notice, outcome.Notice)
			assert.Len(t, outcome.Alternatives, 1)
		}
	})

	t.Run("response without geometry uses the direct line", func(t *testing.T) {
		f := newFixture(answer(`{}`, nil))

		outcome := f.controller.Submit(ctx, "", "Aveiro", here)

		assert.Equal(t, session.StatusSuccess, outcome.Status)
		assert.True(t, outcome.Fallback)
		assert.Len(t, f.controller.View().Alternatives, 1)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RouteSubmissions.WithLabelValues(session.OutcomeFallback)), 0)
	})

	t.Run("places too close are not routed", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))
		require.Equal(t, session.StatusSuccess, f.controller.Submit(ctx, "", "Aveiro", here).Status)
		f.clock.Advance(5 * time.Second)

		outcome := f.controller.Submit(ctx, "Aveiro", "aveiro", here)

		assert.Equal(t, session.StatusInvalid, outcome.Status)
		require.ErrorIs(t, outcome.Err, session.ErrTooClose)
		assert.Equal(t, 1, f.router.calls())
		view := f.controller.View()
		assert.Empty(t, view.Alternatives)
		assert.Empty(t, view.Markers)
		assert.False(t, view.Submitting)
	})

	t.Run("missing current location", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))

		outcome := f.controller.Submit(ctx, "", "Aveiro", nil)

		assert.Equal(t, session.StatusInvalid, outcome.Status)
		require.ErrorIs(t, outcome.Err, resolver.ErrMissingLocation)
		assert.Equal(t, "Current location is not available yet.", outcome.Notice)
		assert.Zero(t, f.router.calls())
		assert.False(t, f.controller.View().Submitting)
	})

	t.Run("unresolvable destination", func(t *testing.T) {
		f := newFixture(answer(lineBody, nil))
		f.provider.On("Geocode", mock.Anything, "Atlantis").Return(nil, assert.AnError).Once()

		outcome := f.controller.Submit(ctx, "", "Atlantis", here)

		assert.Equal(t, session.StatusInvalid, outcome.Status)
		var unresolvable *resolver.UnresolvableLocationError
		require.ErrorAs(t, outcome.Err, &unresolvable)
		assert.Equal(t, "Atlantis", unresolvable.Text)
		assert.Equal(t, `Could not find "Atlantis".`, outcome.Notice)
		assert.Zero(t, f.router.calls())
	})

	t.Run("busy while a request is in flight", func(t *testing.T) {
		started, release := make(chan struct{}), make(chan struct{})
		f := newFixture(func(_ context.Context, _ directions.Request) (json.RawMessage, error) {
			close(started)
			<-release
			return json.RawMessage(lineBody), nil
		})

		done := make(chan session.Outcome)
		go func() { done <- f.controller.Submit(ctx, "", "Aveiro", here) }()
		<-started

		assert.True(t, f.controller.View().Submitting)
		f.clock.Advance(10 * time.Second)
		busy := f.controller.Submit(ctx, "", "Porto", here)

		close(release)
		first := <-done

		require.ErrorIs(t, busy.Err, session.ErrBusy)
		assert.Equal(t, session.StatusSuccess, first.Status)
		assert.Equal(t, 1, f.router.calls())
		assert.False(t, f.controller.View().Submitting)
	})

	t.Run("reset discards the in-flight result", func(t *testing.T) {
		started, release := make(chan struct{}), make(chan struct{})
		f := newFixture(func(_ context.Context, _ directions.Request) (json.RawMessage, error) {
			close(started)
			<-release
			return json.RawMessage(lineBody), nil
		})

		done := make(chan session.Outcome)
		go func() { done <- f.controller.Submit(ctx, "", "Aveiro", here) }()
		<-started

		f.controller.Reset()
		close(release)
		outcome := <-done

		assert.Equal(t, session.StatusSuperseded, outcome.Status)
		assert.Empty(t, outcome.Alternatives)
		assert.Nil(t, outcome.Origin)
		assert.Nil(t, outcome.Destination)
		view := f.controller.View()
		assert.Empty(t, view.Alternatives)
		assert.False(t, view.Submitting)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RouteSubmissions.WithLabelValues(session.OutcomeSuperseded)), 0)
	})
}

func TestController_View(t *testing.T) {
	f := newFixture(answer(lineBody, nil))
	f.controller.Submit(t.Context(), "", "Aveiro", here)

	view := f.controller.View()
	view.Alternatives[0][0].Latitude = 0

	assert.InDelta(t, 40.60, f.controller.View().Alternatives[0][0].Latitude, 0)
}
