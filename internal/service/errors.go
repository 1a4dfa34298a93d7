package service

import "errors"

// Rating bounds accepted by RatePOI.
const (
	MinRating = 0
	MaxRating = 5
)

var (
	ErrCatalogDisabled   = errors.New("points-of-interest catalog is not configured")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrPOINameRequired   = errors.New("point of interest name is required")
	ErrPOILimitReached   = errors.New("point of interest limit reached")
	ErrInvalidCoordinate = errors.New("latitude must be within ±90 and longitude within ±180")
)
