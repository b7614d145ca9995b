// Package ingress implements the stage that bridges telemetry from
// outside the pipeline's own namespace into it: either by querying a
// time-series database directly, or by copying already-ingested
// artifacts from another origin (a prior run, a peer instance, or a
// shared document store).
package ingress

import (
	"context"
	"log/slog"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

const StageName = "ingress"

// Mode (Source, Store) for DataSourceKind selects which ingressMode
// implementation backs a Stage.
type SourceKind string

const (
	SourceUpstream SourceKind = "upstream"
	SourceExisting SourceKind = "existing"
)

// Config configures one IngressStage instance.
type Config struct {
	Kind SourceKind

	// Existing mode: the origin artifacts are copied from. Must not
	// equal the Context's title, or a pipeline could read-then-write
	// through its own unbuilt outputs.
	IngressOrigin string

	// Worker pool size for both modes' per-cell fan-out. New does not
	// read it; the pool size Run uses is its concurrency argument.
	Concurrency int
}

// Stage ingests raw telemetry and republishes it under the pipeline's
// own namespace. It has no declared dependencies: it is always the
// first stage the driver runs.
type Stage struct {
	ctx    *core.Context
	logger *slog.Logger
	mode   ingressMode
}

// ingressMode is the strategy the two concrete sources implement:
// upstreamMode (querying telemetry directly) and existingMode
// (copying artifacts already ingested elsewhere). Go has no attribute
// rebinding the way the original swaps bound methods per
// constructor branch, so the branch selects a small interface value
// instead.
type ingressMode interface {
	fetch(ctx context.Context, source core.DataSource, target core.TimeSeriesTarget, event core.Event, pipelineTitle string) (core.Artifact, error)
}

// New selects and constructs the mode implied by cfg.Kind.
func New(ctx *core.Context, source core.DataSource, cfg Config, logger *slog.Logger) (*Stage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("stage", StageName))

	switch cfg.Kind {
	case SourceUpstream:
		return &Stage{ctx: ctx, logger: logger, mode: &upstreamMode{source: source}}, nil

	case SourceExisting:
		if cfg.IngressOrigin == ctx.Title() {
			return nil, core.NewConfigurationError("ingress.ingress_origin",
				"ingress_origin must not equal the pipeline title, or the run would read through its own outputs")
		}
		return &Stage{ctx: ctx, logger: logger, mode: &existingMode{source: source, origin: cfg.IngressOrigin}}, nil

	default:
		return nil, core.NewConfigurationError("ingress.kind", "unrecognized ingress data source kind "+string(cfg.Kind))
	}
}

// StageName identifies this stage in the dependency graph.
func (s *Stage) StageName() string {
	return StageName
}

// Dependencies is always empty: IngressStage is the pipeline's root.
func (s *Stage) Dependencies() []string {
	return nil
}
