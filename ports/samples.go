package ports

import (
	"context"

	"artbench/domain/core"
	"artbench/domain/stats"
)

// Observation is one extracted metric value for one artist run.
type Observation struct {
	BatchID  core.BatchID    `json:"batch_id" db:"batch_id"`
	Artist   core.ArtistID   `json:"artist" db:"artist"`
	Metric   core.MetricName `json:"metric" db:"metric"`
	RunIndex int             `json:"run_index" db:"run_index"`
	Value    float64         `json:"value" db:"value"`
}

// SampleSource loads already-extracted observations.
type SampleSource interface {
	// LoadSamples returns one sample set per requested artist, in the order given.
	// An artist with no observations yields a set with no values rather than an error.
	LoadSamples(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID) ([]stats.SampleSet, error)
}

// SampleWriter stores raw observations (used by the simulator).
type SampleWriter interface {
	WriteObservations(ctx context.Context, observations []Observation) error
}
