package ports

import (
	"context"

	"artbench/domain/stats"
)

// ResultSink receives the records produced by the batch jobs. Implementations
// own storage and keying; saving the same key twice replaces the earlier record.
type ResultSink interface {
	SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error
	SaveANOVA(ctx context.Context, record stats.ANOVARecord) error
	SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error
}
