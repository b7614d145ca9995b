package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sunbeam-telemetry/sunbeam/internal/httpclient"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// PeerStore reads artifacts from another Sunbeam instance's
// FilesystemStore or DocumentStore over HTTP, generalizing the
// teacher's resilient client (circuit breaker, bounded retry,
// transparent gzip/deflate/brotli decompression) from media-fetch use
// to artifact-fetch use. Read-only: Store always fails.
type PeerStore struct {
	client  *httpclient.Client
	baseURL string
}

// NewPeerStore targets baseURL (e.g. "https://peer.example.com") using
// the given resilient-client configuration.
func NewPeerStore(baseURL string, cfg httpclient.Config) *PeerStore {
	return &PeerStore{client: httpclient.New(cfg), baseURL: baseURL}
}

// Store always fails: a PeerStore only mirrors another instance's
// published artifacts.
func (s *PeerStore) Store(ctx context.Context, artifact core.Artifact) (core.ArtifactLoader, error) {
	return core.ArtifactLoader{}, core.NewDataErrorWithCause("peer_store", "Store is not supported on PeerStore", core.ErrNotAllowed)
}

// Get fetches GET <base>/artifacts/<origin>/<event>/<source>/<name>
// and decodes the CBOR-encoded body.
func (s *PeerStore) Get(ctx context.Context, path core.CanonicalPath, hints map[string]any) (core.Result[core.Artifact], error) {
	url := fmt.Sprintf("%s/artifacts/%s", s.baseURL, path.ToPath())

	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return core.Result[core.Artifact]{}, core.NewIOError("peer_store_fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.Err[core.Artifact](core.ErrNotFound), nil
	}
	if resp.StatusCode != http.StatusOK {
		return core.Err[core.Artifact](core.NewDataError("peer_store", fmt.Sprintf("unexpected status %d from peer", resp.StatusCode))), nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Result[core.Artifact]{}, core.NewIOError("peer_store_read_body", err)
	}

	artifact, err := decodeArtifact(raw)
	if err != nil {
		return core.Err[core.Artifact](err), nil
	}
	return core.Ok(artifact), nil
}

// Close releases the underlying HTTP client's idle connections.
func (s *PeerStore) Close(ctx context.Context) error {
	s.client.StandardClient().CloseIdleConnections()
	return nil
}
