package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// ArtistID identifies a reasoning model taking part in a comparison.
	ArtistID ID
	// MetricName names one extracted measurement, e.g. "valence".
	MetricName ID
	// BatchID scopes a set of runs that were generated from one brief.
	BatchID ID
	// RunID identifies one invocation of the analysis pipeline.
	RunID ID
)

func (id ArtistID) String() string   { return ID(id).String() }
func (id MetricName) String() string { return ID(id).String() }
func (id BatchID) String() string    { return ID(id).String() }
func (id RunID) String() string      { return ID(id).String() }

// IsEmpty reports whether no batch was given; sample sets may be unscoped.
func (id BatchID) IsEmpty() bool { return id == "" }

// NewRunID returns a time-ordered run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseArtistID parses a string into ArtistID
func ParseArtistID(s string) (ArtistID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: artist ID cannot be empty", ErrInvalidArgument)
	}
	return ArtistID(s), nil
}

// ParseMetricName parses a string into MetricName
func ParseMetricName(s string) (MetricName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: metric name cannot be empty", ErrInvalidArgument)
	}
	return MetricName(s), nil
}

// ParseBatchID parses a string into BatchID
func ParseBatchID(s string) (BatchID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: batch ID cannot be empty", ErrInvalidArgument)
	}
	return BatchID(s), nil
}
