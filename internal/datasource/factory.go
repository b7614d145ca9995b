package datasource

import (
	"context"

	"github.com/sunbeam-telemetry/sunbeam/internal/httpclient"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// Kind names one of the four backend types a Config may select.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindDocument   Kind = "document"
	KindUpstream   Kind = "upstream"
	KindPeer       Kind = "peer"
)

// Config is the backend-agnostic configuration a SunbeamConfig
// DataSource section decodes into. Only the fields relevant to Kind
// are read by Build.
type Config struct {
	Kind Kind

	// FilesystemStore
	Directory string

	// DocumentStore
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// UpstreamStore
	InfluxURL   string
	InfluxToken string
	InfluxOrg   string

	// PeerStore
	PeerBaseURL string
}

// Build constructs the core.DataSource named by cfg.Kind.
func Build(ctx context.Context, cfg Config) (core.DataSource, error) {
	switch cfg.Kind {
	case KindFilesystem:
		return NewFilesystemStore(cfg.Directory)
	case KindDocument:
		return NewDocumentStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case KindUpstream:
		return NewUpstreamStore(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg), nil
	case KindPeer:
		return NewPeerStore(cfg.PeerBaseURL, httpclient.DefaultConfig()), nil
	default:
		return nil, core.NewConfigurationError("data_source.kind", "unknown data source kind "+string(cfg.Kind))
	}
}
