package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidArgument is the root of every error caused by a malformed call.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrEmptySample        = fmt.Errorf("%w: empty sample", ErrInvalidArgument)
	ErrNonFinite          = fmt.Errorf("%w: non-finite value", ErrInvalidArgument)
	ErrInsufficientData   = fmt.Errorf("%w: insufficient data for analysis", ErrInvalidArgument)
	ErrInsufficientGroups = fmt.Errorf("%w: at least two groups required", ErrInvalidArgument)
	ErrInvalidPValue      = fmt.Errorf("%w: p-value outside [0, 1]", ErrInvalidArgument)
	ErrInvalidAlpha       = fmt.Errorf("%w: alpha outside (0, 1)", ErrInvalidArgument)
	ErrUnknownKind        = fmt.Errorf("%w: unknown analysis kind", ErrInvalidArgument)
	ErrUnknownMethod      = fmt.Errorf("%w: unknown correction method", ErrInvalidArgument)

	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrArtistNotFound  = fmt.Errorf("%w: artist", ErrNotFound)
	ErrSamplesNotFound = fmt.Errorf("%w: samples", ErrNotFound)
)

// NewNotFoundError builds a not-found error for a resource and id.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewSampleError attaches the offending index to a sample validation failure.
func NewSampleError(kind error, index int, value float64) error {
	return fmt.Errorf("%w at index %d (%v)", kind, index, value)
}

// IsInvalidArgument reports whether err was caused by caller input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFoundError reports whether err is a lookup miss.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
