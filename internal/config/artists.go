package config

import (
	"bytes"
	"fmt"
	"os"

	"artbench/domain/analysis"
	"artbench/internal/errors"

	"gopkg.in/yaml.v3"
)

// DefaultArtists is used when no ARTISTS_FILE is configured.
func DefaultArtists() analysis.ArtistTable {
	return analysis.ArtistTable{Artists: []analysis.Artist{
		{ID: "o3", DisplayName: "OpenAI o3", Provider: "openai", Enabled: true},
		{ID: "claude-opus", DisplayName: "Claude Opus", Provider: "anthropic", Enabled: true},
		{ID: "gemini-pro", DisplayName: "Gemini Pro", Provider: "google", Enabled: true},
		{ID: "deepseek-r1", DisplayName: "DeepSeek R1", Provider: "deepseek", Enabled: true},
	}}
}

// LoadArtistTable reads an artist table from YAML. An empty path yields DefaultArtists.
//
//	artists:
//	  - id: o3
//	    display_name: OpenAI o3
//	    provider: openai
//	    enabled: true
func LoadArtistTable(path string) (analysis.ArtistTable, error) {
	if path == "" {
		return DefaultArtists(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.ArtistTable{}, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read artist table %s", path)
	}
	return ParseArtistTable(data)
}

// ParseArtistTable decodes and validates a YAML artist table. Unknown keys are rejected.
func ParseArtistTable(data []byte) (analysis.ArtistTable, error) {
	var table analysis.ArtistTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return analysis.ArtistTable{}, errors.ConfigInvalid(fmt.Sprintf("invalid artist table: %v", err))
	}
	if err := table.Validate(); err != nil {
		return analysis.ArtistTable{}, errors.Wrap(err, "invalid artist table")
	}
	if len(table.Enabled()) < 2 {
		return analysis.ArtistTable{}, errors.ConfigInvalid("artist table needs at least two enabled artists")
	}
	return table, nil
}
