// Package core provides the pipeline execution framework: canonical
// artifact addressing, the stage registry, the run-scoped Context, and
// the extract/transform/load contract that every stage implements.
package core

import (
	"fmt"
	"path/filepath"
)

// CanonicalPath is the four-tuple address of an artifact within a
// DataSource: the pipeline (or upstream) origin, the event the artifact
// belongs to, the stage that produced it, and its name.
//
// CanonicalPath is a value type: comparable, usable as a map key, and
// convertible to both a filesystem-relative path and a human-readable
// string.
type CanonicalPath struct {
	Origin string
	Event  string
	Source string
	Name   string
}

// NewCanonicalPath constructs a CanonicalPath from its four components.
func NewCanonicalPath(origin, event, source, name string) CanonicalPath {
	return CanonicalPath{Origin: origin, Event: event, Source: source, Name: name}
}

// String renders the canonical path as "<origin>/<event>/<source>/<name>".
func (p CanonicalPath) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", p.Origin, p.Event, p.Source, p.Name)
}

// ToPath returns the path's filesystem-relative representation, rooted
// at origin/event/source/name with no extension. Backends that need a
// suffix (FilesystemStore's ".bin") append it themselves.
func (p CanonicalPath) ToPath() string {
	return filepath.Join(p.Origin, p.Event, p.Source, p.Name)
}
