package resolver

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/UnknownOlympus/wayly/internal/models"
)

// Presets maps case-folded place names to fixed coordinates.
type Presets map[string]models.Coordinate

// DefaultPresets returns the built-in preset table.
func DefaultPresets() Presets {
	return Presets{
		"porto":  {Latitude: 41.1579, Longitude: -8.6291, Name: "Porto"},
		"aveiro": {Latitude: 40.6405, Longitude: -8.6538, Name: "Aveiro"},
		"lisboa": {Latitude: 38.7169, Longitude: -9.1399, Name: "Lisboa"},
	}
}

// Lookup matches the name case-insensitively after trimming surrounding whitespace.
func (p Presets) Lookup(name string) (models.Coordinate, bool) {
	coord, ok := p[presetKey(name)]
	return coord, ok
}

type presetFile struct {
	Preset []struct {
		Name      string  `toml:"name"`
		Latitude  float64 `toml:"latitude"`
		Longitude float64 `toml:"longitude"`
	} `toml:"preset"`
}

// LoadPresets decodes a TOML file of [[preset]] tables and merges it over base.
// Entries in the file replace built-ins with the same name.
func LoadPresets(filename string, base Presets) (Presets, error) {
	var file presetFile
	if _, err := toml.DecodeFile(filename, &file); err != nil {
		return nil, fmt.Errorf("failed to decode presets file: %w", err)
	}

	merged := make(Presets, len(base)+len(file.Preset))
	for key, coord := range base {
		merged[key] = coord
	}

	for idx, entry := range file.Preset {
		key := presetKey(entry.Name)
		if key == "" {
			return nil, fmt.Errorf("preset #%d has no name", idx+1)
		}
		merged[key] = models.Coordinate{
			Latitude:  entry.Latitude,
			Longitude: entry.Longitude,
			Name:      strings.TrimSpace(entry.Name),
		}
	}

	return merged, nil
}

func presetKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
