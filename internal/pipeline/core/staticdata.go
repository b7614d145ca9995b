package core

import (
	"encoding/csv"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// StaticData is the read-only nested mapping a Stage loads on
// construction from <stage_data_root>/<stage_name>/. Keys are relative
// paths (without extension) of the files under that root; values are
// the parsed contents, dispatched by extension.
type StaticData map[string]any

// DirFilter decides whether a directory entry should be descended into
// or skipped while loading static stage data.
type DirFilter func(name string) bool

// LoadStaticData recurses dataRoot, parsing each file by extension
// (TOML, JSON, CSV; anything else is kept as raw bytes) into a nested
// StaticData mapping keyed by relative path. filter, if non-nil, is
// consulted for every directory and skips it (and its descendants) when
// it returns false.
func LoadStaticData(dataRoot string, filter DirFilter) (StaticData, error) {
	data := make(StaticData)

	info, err := os.Stat(dataRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, NewIOError("load_static_data", err)
	}
	if !info.IsDir() {
		return nil, NewConfigurationError("stage_data_root", dataRoot+" is not a directory")
	}

	err = filepath.WalkDir(dataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dataRoot && filter != nil && !filter(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dataRoot, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(rel, filepath.Ext(rel))

		parsed, err := parseStaticFile(path)
		if err != nil {
			return err
		}
		data[key] = parsed
		return nil
	})
	if err != nil {
		return nil, NewIOError("load_static_data", err)
	}

	return data, nil
}

func parseStaticFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIOError("read_static_file", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var v map[string]any
		if err := toml.Unmarshal(raw, &v); err != nil {
			return nil, NewConfigurationError(path, "invalid TOML: "+err.Error())
		}
		return v, nil
	case ".json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, NewConfigurationError(path, "invalid JSON: "+err.Error())
		}
		return v, nil
	case ".csv":
		reader := csv.NewReader(strings.NewReader(string(raw)))
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, NewConfigurationError(path, "invalid CSV: "+err.Error())
		}
		return rows, nil
	default:
		return raw, nil
	}
}

// Get retrieves a value from the static data mapping by its relative
// key, reporting whether it was present.
func (d StaticData) Get(key string) (any, bool) {
	v, ok := d[key]
	return v, ok
}
