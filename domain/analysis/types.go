package analysis

import (
	"fmt"
	"strings"

	"artbench/domain/core"
)

// Kind is the closed set of analyses the pipeline knows how to run.
type Kind string

const (
	KindSentiment   Kind = "sentiment"
	KindColor       Kind = "color"
	KindMateriality Kind = "materiality"
)

// Metric names produced by the upstream extractors.
const (
	MetricValence            core.MetricName = "valence"
	MetricArousal            core.MetricName = "arousal"
	MetricColorTemperature   core.MetricName = "color_temperature"
	MetricSaturation         core.MetricName = "saturation"
	MetricImpossibilityScore core.MetricName = "impossibility_score"
)

// AllKinds returns every kind in pipeline order
func AllKinds() []Kind {
	return []Kind{KindSentiment, KindColor, KindMateriality}
}

// ParseKind parses a kind name, case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindSentiment, KindColor, KindMateriality:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownKind, s)
}

// Metrics returns the metrics a kind analyzes, in a stable order.
func Metrics(kind Kind) ([]core.MetricName, error) {
	switch kind {
	case KindSentiment:
		return []core.MetricName{MetricValence, MetricArousal}, nil
	case KindColor:
		return []core.MetricName{MetricColorTemperature, MetricSaturation}, nil
	case KindMateriality:
		return []core.MetricName{MetricImpossibilityScore}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
}

// Artist describes one reasoning model taking part in a comparison.
type Artist struct {
	ID          core.ArtistID `json:"id" yaml:"id"`
	DisplayName string        `json:"display_name" yaml:"display_name"`
	Provider    string        `json:"provider,omitempty" yaml:"provider"`
	Enabled     bool          `json:"enabled" yaml:"enabled"`
}

// Label returns DisplayName, falling back to the ID
func (a Artist) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.ID.String()
}

// ArtistTable is the configuration table handed to the pipeline on every call.
// Order is significant: pairwise comparisons follow it.
type ArtistTable struct {
	Artists []Artist `json:"artists" yaml:"artists"`
}

// NewArtistTable builds an enabled table from plain ids
func NewArtistTable(ids ...core.ArtistID) ArtistTable {
	t := ArtistTable{Artists: make([]Artist, 0, len(ids))}
	for _, id := range ids {
		t.Artists = append(t.Artists, Artist{ID: id, Enabled: true})
	}
	return t
}

// Validate rejects blank and duplicate ids
func (t ArtistTable) Validate() error {
	seen := make(map[core.ArtistID]bool, len(t.Artists))
	for i, a := range t.Artists {
		if strings.TrimSpace(a.ID.String()) == "" {
			return fmt.Errorf("%w: artist %d has no id", core.ErrInvalidArgument, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate artist %q", core.ErrInvalidArgument, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Enabled returns enabled artist ids in table order
func (t ArtistTable) Enabled() []core.ArtistID {
	ids := make([]core.ArtistID, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Enabled {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Lookup finds an artist by id
func (t ArtistTable) Lookup(id core.ArtistID) (Artist, error) {
	for _, a := range t.Artists {
		if a.ID == id {
			return a, nil
		}
	}
	return Artist{}, fmt.Errorf("%w: %s", core.ErrArtistNotFound, id)
}
