package session

import "github.com/UnknownOlympus/wayly/internal/models"

// Status is the terminal state of one submission.
type Status int

const (
	// StatusRejected means the submission was not accepted and nothing changed.
	StatusRejected Status = iota
	// StatusInvalid means a place could not be resolved or the places were too close.
	StatusInvalid
	// StatusSuccess means the directions API answered. Fallback may still be set.
	StatusSuccess
	// StatusFailed means the directions API call failed and the direct line is shown.
	StatusFailed
	// StatusSuperseded means a newer submission or a reset replaced this one.
	StatusSuperseded
)

func (s Status) String() string {
	switch s {
	case StatusRejected:
		return "rejected"
	case StatusInvalid:
		return "invalid"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Submission outcome labels.
const (
	OutcomeRejected   = "rejected"
	OutcomeInvalid    = "invalid"
	OutcomeSuccess    = "success"
	OutcomeFallback   = "fallback"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
)

// Outcome reports what a submission did.
type Outcome struct {
	Status       Status               `json:"status"`
	Origin       *models.Place        `json:"origin,omitempty"`
	Destination  *models.Place        `json:"destination,omitempty"`
	Alternatives []models.Alternative `json:"alternatives,omitempty"`
	Markers      []models.Waypoint    `json:"markers,omitempty"`
	Fallback     bool                 `json:"fallback"`
	Notice       string               `json:"notice,omitempty"`
	Err          error                `json:"-"`
	RequestID    string               `json:"request_id,omitempty"`
}

func (o Outcome) label() string {
	switch o.Status {
	case StatusRejected:
		return OutcomeRejected
	case StatusInvalid:
		return OutcomeInvalid
	case StatusSuccess:
		if o.Fallback {
			return OutcomeFallback
		}
		return OutcomeSuccess
	case StatusFailed:
		return OutcomeFailed
	default:
		return OutcomeSuperseded
	}
}
