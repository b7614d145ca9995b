package datasource

import (
	"context"
	"errors"
	"os"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
	"github.com/sunbeam-telemetry/sunbeam/internal/storage"
)

// FilesystemStore persists artifacts under <root>/<origin>/<event>/<source>/<name>.bin,
// one CBOR-encoded envelope per file. Writes go through storage.Sandbox's
// atomic write (temp file plus rename), so a reader never observes a
// half-written artifact.
type FilesystemStore struct {
	sandbox *storage.Sandbox
}

// NewFilesystemStore opens (creating if necessary) a FilesystemStore
// rooted at dir.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	sandbox, err := storage.NewSandbox(dir)
	if err != nil {
		return nil, core.NewIOError("filesystem_store_open", err)
	}
	return &FilesystemStore{sandbox: sandbox}, nil
}

func artifactRelPath(path core.CanonicalPath) string {
	return path.ToPath() + ".bin"
}

// Store writes artifact to its canonical path, replacing any prior
// contents. The returned loader re-reads from disk lazily rather than
// holding the artifact in memory.
func (s *FilesystemStore) Store(ctx context.Context, artifact core.Artifact) (core.ArtifactLoader, error) {
	raw, err := encodeArtifact(artifact)
	if err != nil {
		return core.ArtifactLoader{}, err
	}

	rel := artifactRelPath(artifact.CanonicalPath)
	if err := s.sandbox.AtomicWrite(rel, raw); err != nil {
		return core.ArtifactLoader{}, core.NewIOError("filesystem_store_write", err)
	}

	path := artifact.CanonicalPath
	return core.NewArtifactLoader(path, func(ctx context.Context) (core.Result[core.Artifact], error) {
		return s.Get(ctx, path, nil)
	}), nil
}

// Get reads and decodes the artifact at path. A missing file is
// reported as Err(ErrNotFound), not as an outer error.
func (s *FilesystemStore) Get(ctx context.Context, path core.CanonicalPath, hints map[string]any) (core.Result[core.Artifact], error) {
	rel := artifactRelPath(path)
	raw, err := s.sandbox.ReadFile(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Err[core.Artifact](core.ErrNotFound), nil
		}
		return core.Result[core.Artifact]{}, core.NewIOError("filesystem_store_read", err)
	}

	artifact, err := decodeArtifact(raw)
	if err != nil {
		return core.Err[core.Artifact](err), nil
	}
	return core.Ok(artifact), nil
}

// Close is a no-op; FilesystemStore holds no long-lived resources
// beyond the directory handle implicit in its sandbox root.
func (s *FilesystemStore) Close(ctx context.Context) error {
	return nil
}
