package core

import "context"

// Fetcher is the closure an ArtifactLoader defers to. It is supplied by
// whichever DataSource produced the loader, usually by binding its own
// Get method to a fixed canonical path.
type Fetcher func(ctx context.Context) (Result[Artifact], error)

// ArtifactLoader is a deferred handle to an artifact: a canonical path
// plus a fetch closure. Loaders are the only currency of inter-stage
// data passing. They never hold raw data and never fail on
// construction — only Load can fail: with the IOError class from the
// fetch itself, or with a StageError if no fetch closure is bound.
type ArtifactLoader struct {
	CanonicalPath CanonicalPath
	fetch         Fetcher
}

// NewArtifactLoader binds a canonical path to a fetch closure.
func NewArtifactLoader(path CanonicalPath, fetch Fetcher) ArtifactLoader {
	return ArtifactLoader{CanonicalPath: path, fetch: fetch}
}

// Load invokes the loader's fetch closure, returning the artifact
// wrapped in a Result, or an error if the fetch itself hit unrecoverable
// infrastructure failure (IOError class).
func (l ArtifactLoader) Load(ctx context.Context) (Result[Artifact], error) {
	if l.fetch == nil {
		return Result[Artifact]{}, NewStageError("artifactloader", "loader has no fetch closure bound")
	}
	return l.fetch(ctx)
}

// NullLoader returns an ArtifactLoader that always resolves to
// Ok(Artifact) with Data == nil at the given path, without touching any
// backing store. Used for skip_stage semantics and for Ingress's
// forgiving lookups of unknown targets.
func NullLoader(path CanonicalPath, fileType ArtifactType) ArtifactLoader {
	return NewArtifactLoader(path, func(ctx context.Context) (Result[Artifact], error) {
		return Ok(NewArtifact(path, fileType, nil)), nil
	})
}
