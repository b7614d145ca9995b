package config

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
	"github.com/sunbeam-telemetry/sunbeam/pkg/duration"
)

const eventsFileField = "events_description_file"

type eventsFile struct {
	Event []eventEntry `toml:"event"`
}

type eventEntry struct {
	Name       string         `toml:"name"`
	Start      string         `toml:"start"`
	Stop       string         `toml:"stop"`
	Flags      []string       `toml:"flags"`
	Attributes map[string]any `toml:"attributes"`
}

// LoadEvents parses the raw contents of the events description file into a list of
// core.Event values, resolving RFC 3339 start/stop timestamps and an
// optional "time_offset" attribute (a human-readable duration string,
// e.g. "2h") into a time.Duration.
func LoadEvents(raw []byte) ([]core.Event, error) {
	var file eventsFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing events file: %w", err)
	}
	if len(file.Event) == 0 {
		return nil, core.NewConfigurationError(eventsFileField, "at least one event is required")
	}

	events := make([]core.Event, 0, len(file.Event))
	seen := make(map[string]struct{}, len(file.Event))
	for _, entry := range file.Event {
		if _, ok := seen[entry.Name]; ok {
			return nil, core.NewConfigurationError(eventsFileField, fmt.Sprintf("duplicate event name %q", entry.Name))
		}
		seen[entry.Name] = struct{}{}

		start, err := time.Parse(time.RFC3339, entry.Start)
		if err != nil {
			return nil, fmt.Errorf("event %q: invalid start timestamp: %w", entry.Name, err)
		}
		stop, err := time.Parse(time.RFC3339, entry.Stop)
		if err != nil {
			return nil, fmt.Errorf("event %q: invalid stop timestamp: %w", entry.Name, err)
		}

		flags := make(map[string]struct{}, len(entry.Flags))
		for _, f := range entry.Flags {
			flags[f] = struct{}{}
		}

		attributes := make(map[string]any, len(entry.Attributes))
		for k, v := range entry.Attributes {
			attributes[k] = v
		}
		if raw, ok := attributes["time_offset"].(string); ok {
			offset, err := duration.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("event %q: invalid time_offset: %w", entry.Name, err)
			}
			attributes["offset"] = offset
		}

		events = append(events, core.Event{
			Name:       entry.Name,
			Start:      start,
			Stop:       stop,
			Flags:      flags,
			Attributes: attributes,
		})
	}

	return events, nil
}
