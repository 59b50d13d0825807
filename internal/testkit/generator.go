package testkit

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"artbench/domain/analysis"
	"artbench/domain/core"
	"artbench/ports"
)

// MetricProfile is the distribution one artist's metric is drawn from.
type MetricProfile struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// GeneratorConfig configures the synthetic observation generator
type GeneratorConfig struct {
	BatchID core.BatchID      `json:"batch_id"`
	Artists []core.ArtistID   `json:"artists"`
	Metrics []core.MetricName `json:"metrics"`
	Runs    int               `json:"runs"`
	Seed    int64             `json:"seed"`
	// Profiles overrides the default profile per artist and metric.
	Profiles map[core.ArtistID]map[core.MetricName]MetricProfile `json:"profiles,omitempty"`
}

// DefaultGeneratorConfig returns four artists, every metric and 30 runs each.
func DefaultGeneratorConfig() GeneratorConfig {
	var metrics []core.MetricName
	for _, kind := range analysis.AllKinds() {
		m, _ := analysis.Metrics(kind)
		metrics = append(metrics, m...)
	}
	return GeneratorConfig{
		BatchID: "synthetic",
		Artists: []core.ArtistID{"o3", "claude-opus", "gemini-pro", "deepseek-r1"},
		Metrics: metrics,
		Runs:    30,
		Seed:    42,
	}
}

// metricRange bounds generated values the way the extractors bound them.
var metricRange = map[core.MetricName][2]float64{
	analysis.MetricValence:            {-1, 1},
	analysis.MetricArousal:            {0, 1},
	analysis.MetricColorTemperature:   {-1, 1},
	analysis.MetricSaturation:         {0, 1},
	analysis.MetricImpossibilityScore: {0, 1},
}

// Generator produces deterministic synthetic observations. Each artist and
// metric draws from its own stream so adding an artist never changes the
// values generated for the others.
type Generator struct {
	config GeneratorConfig
	rng    ports.RNGPort
}

// NewGenerator creates a generator backed by SeededRNG.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config, rng: SeededRNG{}}
}

// Generate returns Runs observations for every artist and metric.
func (g *Generator) Generate(ctx context.Context) ([]ports.Observation, error) {
	if g.config.Runs < 1 {
		return nil, fmt.Errorf("%w: runs must be at least 1", core.ErrInvalidArgument)
	}
	if g.config.BatchID.IsEmpty() {
		return nil, fmt.Errorf("%w: batch id is required", core.ErrInvalidArgument)
	}

	out := make([]ports.Observation, 0, len(g.config.Artists)*len(g.config.Metrics)*g.config.Runs)
	for ai, artist := range g.config.Artists {
		for _, metric := range g.config.Metrics {
			rng, err := g.rng.Stream(ctx, fmt.Sprintf("%s/%s", artist, metric), g.config.Seed)
			if err != nil {
				return nil, err
			}
			profile := g.profile(ai, artist, metric)
			for run := 0; run < g.config.Runs; run++ {
				out = append(out, ports.Observation{
					BatchID:  g.config.BatchID,
					Artist:   artist,
					Metric:   metric,
					RunIndex: run,
					Value:    clampToRange(metric, profile.Mean+profile.StdDev*rng.NormFloat64()),
				})
			}
		}
	}
	return out, nil
}

// profile spreads default means across artists so a default batch has real differences.
func (g *Generator) profile(index int, artist core.ArtistID, metric core.MetricName) MetricProfile {
	if p, ok := g.config.Profiles[artist][metric]; ok {
		return p
	}
	r, ok := metricRange[metric]
	if !ok {
		r = [2]float64{0, 1}
	}
	span := r[1] - r[0]
	step := span / float64(len(g.config.Artists)+1)
	return MetricProfile{Mean: r[0] + step*float64(index+1), StdDev: span / 10}
}

func clampToRange(metric core.MetricName, v float64) float64 {
	r, ok := metricRange[metric]
	if !ok {
		return v
	}
	return math.Min(math.Max(v, r[0]), r[1])
}

// SeededRNG implements ports.RNGPort by hashing the stream name into the seed.
type SeededRNG struct{}

// Stream returns the same sequence for the same name and seed.
func (SeededRNG) Stream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64()))), nil
}
