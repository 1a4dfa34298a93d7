package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/wayly/internal/directions"
	"github.com/UnknownOlympus/wayly/internal/metrics"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/resolver"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultThrottle is the minimum time between accepted submissions.
	DefaultThrottle = 3 * time.Second
	// DefaultMinSeparation is the minimum origin/destination distance in degrees (~100 m).
	DefaultMinSeparation = 0.001
)

// Rejections that leave the session untouched.
var (
	ErrBusy                = errors.New("a route request is already in progress")
	ErrThrottled           = errors.New("route requests are too frequent")
	ErrDestinationRequired = errors.New("destination is required")
)

// ErrTooClose is returned when origin and destination resolve to nearly the same point.
var ErrTooClose = errors.New("origin and destination are too close")

// Resolver turns free text into a place.
type Resolver interface {
	Resolve(ctx context.Context, text string, current *models.Coordinate) (*models.Place, error)
}

// Router fetches raw route geometry from the directions API.
type Router interface {
	Route(ctx context.Context, request directions.Request) (json.RawMessage, error)
}

// WaypointSource provides the waypoints to route through.
type WaypointSource interface {
	Snapshot() []models.Waypoint
}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	Throttle      time.Duration
	MinSeparation float64
	UserID        string
	Now           func() time.Time
	Metrics       *metrics.Metrics
}

// State is the displayed outcome of the latest submission.
type State struct {
	Origin         *models.Place        `json:"origin,omitempty"`
	Destination    *models.Place        `json:"destination,omitempty"`
	Alternatives   []models.Alternative `json:"alternatives"`
	Markers        []models.Waypoint    `json:"markers"`
	Fallback       bool                 `json:"fallback"`
	Submitting     bool                 `json:"submitting"`
	LastSubmission time.Time            `json:"last_submission"`
	Notice         string               `json:"notice,omitempty"`
	Generation     uint64               `json:"generation"`
}

// Controller orchestrates route submissions. It is safe for concurrent use; only the
// most recent accepted submission may change the displayed state.
type Controller struct {
	resolver      Resolver
	router        Router
	waypoints     WaypointSource
	limiter       *rate.Limiter
	minSeparation float64
	userID        string
	now           func() time.Time
	metrics       *metrics.Metrics
	log           *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
}

// NewController creates a Controller.
func NewController(
	res Resolver,
	router Router,
	waypoints WaypointSource,
	opts Options,
	log *slog.Logger,
) *Controller {
	if opts.Throttle <= 0 {
		opts.Throttle = DefaultThrottle
	}
	if opts.MinSeparation <= 0 {
		opts.MinSeparation = DefaultMinSeparation
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UserID == "" {
		opts.UserID = uuid.NewString()
	}

	return &Controller{
		resolver:      res,
		router:        router,
		waypoints:     waypoints,
		limiter:       rate.NewLimiter(rate.Every(opts.Throttle), 1),
		minSeparation: opts.MinSeparation,
		userID:        opts.UserID,
		now:           opts.Now,
		metrics:       opts.Metrics,
		log:           log,
	}
}

// Submit resolves both places, requests routes and updates the displayed state.
// current is the device location and may be nil.
func (c *Controller) Submit(ctx context.Context, originText, destinationText string, current *models.Coordinate) Outcome {
	gen, requestID, err := c.accept(destinationText)
	if err != nil {
		c.log.InfoContext(ctx, "Route submission rejected", "error", err)
		c.count(OutcomeRejected)
		return Outcome{Status: StatusRejected, Notice: noticeFor(err), Err: err}
	}

	log := c.log.With("request_id", requestID)
	log.InfoContext(ctx, "Route submission accepted", "origin", originText, "destination", destinationText)

	origin, destination, err := c.resolve(ctx, originText, destinationText, current)
	if err == nil && origin.DegreeDistance(destination.Coordinate) < c.minSeparation {
		err = ErrTooClose
	}
	if err != nil {
		log.InfoContext(ctx, "Route submission invalid", "error", err)
		return c.finish(gen, Outcome{Status: StatusInvalid, Notice: noticeFor(err), Err: err, RequestID: requestID})
	}

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return c.finish(gen, Outcome{Status: StatusSuperseded, RequestID: requestID})
	}

	markers := c.waypoints.Snapshot()
	request := directions.BuildRequest(origin.Coordinate, destination.Coordinate, markers, c.userID)

	start := c.now()
	body, err := c.router.Route(ctx, request)
	if c.metrics != nil {
		c.metrics.DirectionsSeconds.Observe(c.now().Sub(start).Seconds())
	}

	outcome := Outcome{
		Origin:      origin,
		Destination: destination,
		Markers:     markers,
		RequestID:   requestID,
	}

	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch routes", "error", err)
		outcome.Status = StatusFailed
		outcome.Err = err
		outcome.Alternatives, outcome.Fallback = directions.WithFallback(nil, origin.Coordinate, destination.Coordinate)
		outcome.Notice = noticeFor(err)
		return c.finish(gen, outcome)
	}

	outcome.Status = StatusSuccess
	outcome.Alternatives, outcome.Fallback = directions.WithFallback(
		directions.Normalize(body), origin.Coordinate, destination.Coordinate,
	)
	if outcome.Fallback {
		outcome.Notice = "No route was found; showing a direct line."
		log.WarnContext(ctx, "Routes response had no usable geometry")
	} else {
		outcome.Notice = fmt.Sprintf("Found %d route alternative(s).", len(outcome.Alternatives))
	}

	return c.finish(gen, outcome)
}

// accept applies the rejection rules and, on success, marks the session busy and
// starts a new generation.
func (c *Controller) accept(destinationText string) (uint64, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Submitting {
		return 0, "", ErrBusy
	}
	if strings.TrimSpace(destinationText) == "" {
		return 0, "", ErrDestinationRequired
	}

	now := c.now()
	if !c.limiter.AllowN(now, 1) {
		return 0, "", ErrThrottled
	}

	c.generation++
	c.state = State{
		Markers:        c.state.Markers,
		Submitting:     true,
		LastSubmission: now,
		Generation:     c.generation,
	}

	return c.generation, uuid.NewString(), nil
}

// resolve looks up both places concurrently and waits for both.
func (c *Controller) resolve(
	ctx context.Context,
	originText, destinationText string,
	current *models.Coordinate,
) (*models.Place, *models.Place, error) {
	var (
		group                     errgroup.Group
		origin, destination       *models.Place
		originErr, destinationErr error
	)

	group.Go(func() error {
		origin, originErr = c.resolver.Resolve(ctx, originText, current)
		return originErr
	})
	group.Go(func() error {
		destination, destinationErr = c.resolver.Resolve(ctx, destinationText, current)
		return destinationErr
	})

	if err := group.Wait(); err != nil {
		if originErr != nil {
			return nil, nil, fmt.Errorf("origin: %w", originErr)
		}
		return nil, nil, fmt.Errorf("destination: %w", destinationErr)
	}

	return origin, destination, nil
}

// finish publishes the outcome of generation gen unless a newer one has started,
// and always releases the busy flag owned by gen.
func (c *Controller) finish(gen uint64, outcome Outcome) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		outcome.Status = StatusSuperseded
		outcome.Origin = nil
		outcome.Destination = nil
		outcome.Alternatives = nil
		outcome.Markers = nil
		outcome.Fallback = false
		c.count(OutcomeSuperseded)
		return outcome
	}

	c.state.Submitting = false
	c.state.Notice = outcome.Notice
	c.state.Fallback = outcome.Fallback

	switch outcome.Status {
	case StatusSuccess, StatusFailed:
		c.state.Origin = outcome.Origin
		c.state.Destination = outcome.Destination
		c.state.Alternatives = outcome.Alternatives
		c.state.Markers = outcome.Markers
	default:
		c.state.Alternatives = nil
		c.state.Markers = nil
	}

	if c.metrics != nil {
		c.metrics.RouteAlternatives.Set(float64(len(c.state.Alternatives)))
	}
	c.count(outcome.label())

	return outcome
}

// View returns a copy of the displayed state.
func (c *Controller) View() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.state
	if view.Alternatives != nil {
		view.Alternatives = make([]models.Alternative, len(c.state.Alternatives))
		for i, alt := range c.state.Alternatives {
			view.Alternatives[i] = append(models.Alternative(nil), alt...)
		}
	}
	if view.Markers != nil {
		view.Markers = append([]models.Waypoint(nil), c.state.Markers...)
	}

	return view
}

// Reset clears the displayed routes and discards any in-flight result.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state = State{LastSubmission: c.state.LastSubmission, Generation: c.generation}

	if c.metrics != nil {
		c.metrics.RouteAlternatives.Set(0)
	}
}

func (c *Controller) count(outcome string) {
	if c.metrics != nil {
		c.metrics.RouteSubmissions.WithLabelValues(outcome).Inc()
	}
}

func noticeFor(err error) string {
	var unresolvable *resolver.UnresolvableLocationError

	switch {
	case errors.Is(err, ErrBusy):
		return "A route is already being calculated."
	case errors.Is(err, ErrThrottled):
		return "Please wait a few seconds before requesting another route."
	case errors.Is(err, ErrDestinationRequired):
		return "Please enter a destination."
	case errors.Is(err, ErrTooClose):
		return "Origin and destination are too close."
	case errors.Is(err, resolver.ErrMissingLocation):
		return "Current location is not available yet."
	case errors.As(err, &unresolvable):
		return fmt.Sprintf("Could not find %q.", unresolvable.Text)
	case errors.Is(err, directions.ErrAuthFailure):
		return "Authentication with the routes service failed; showing a direct line."
	case errors.Is(err, directions.ErrServerFailure):
		return "The routes service is unavailable; showing a direct line."
	case errors.Is(err, directions.ErrTimeout):
		return "Could not reach the routes service; showing a direct line."
	default:
		return "Failed to send the route; showing a direct line."
	}
}
