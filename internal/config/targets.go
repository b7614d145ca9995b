package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

const targetsFileField = "ingress_description_file"

type targetsFile struct {
	Target []targetEntry `toml:"target"`
}

type targetEntry struct {
	Type        string  `toml:"type"`
	Name        string  `toml:"name"`
	Field       string  `toml:"field"`
	Measurement string  `toml:"measurement"`
	Frequency   float64 `toml:"frequency"`
	Units       string  `toml:"units"`
	Car         string  `toml:"car"`
	Bucket      string  `toml:"bucket"`
	Description string  `toml:"description"`
}

// LoadTargets parses the raw contents of the ingress description file into a list
// of core.TimeSeriesTarget values. Target names must be unique and
// frequency must be positive.
func LoadTargets(raw []byte) ([]core.TimeSeriesTarget, error) {
	var file targetsFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing targets file: %w", err)
	}
	if len(file.Target) == 0 {
		return nil, core.NewConfigurationError(targetsFileField, "at least one target is required")
	}

	targets := make([]core.TimeSeriesTarget, 0, len(file.Target))
	seen := make(map[string]struct{}, len(file.Target))
	for _, entry := range file.Target {
		if _, ok := seen[entry.Name]; ok {
			return nil, core.NewConfigurationError(targetsFileField, fmt.Sprintf("duplicate target name %q", entry.Name))
		}
		seen[entry.Name] = struct{}{}

		if entry.Frequency <= 0 {
			return nil, core.NewConfigurationError(targetsFileField, fmt.Sprintf("target %q: frequency must be positive", entry.Name))
		}

		targets = append(targets, core.TimeSeriesTarget{
			Name:        entry.Name,
			Field:       entry.Field,
			Measurement: entry.Measurement,
			Frequency:   entry.Frequency,
			Units:       entry.Units,
			Car:         entry.Car,
			Bucket:      entry.Bucket,
			Description: entry.Description,
		})
	}

	return targets, nil
}
