package ingress

import (
	"context"
	"time"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// upstreamMode queries a telemetry database directly for each
// (event, target) cell, translating the target's (bucket, measurement,
// car, field) into a canonical path and the event's window (plus
// offset) into query hints.
type upstreamMode struct {
	source core.DataSource
}

func (m *upstreamMode) fetch(ctx context.Context, _ core.DataSource, target core.TimeSeriesTarget, event core.Event, pipelineTitle string) (core.Artifact, error) {
	path := core.NewCanonicalPath(target.Bucket, target.Measurement, target.Car, target.Field)
	hints := map[string]any{
		"start":  event.Start,
		"stop":   event.Stop,
		"offset": event.Offset(),
	}

	result, err := m.source.Get(ctx, path, hints)
	if err != nil {
		return core.Artifact{}, err
	}
	if result.IsErr() {
		return core.Artifact{}, result.UnwrapErr()
	}

	queried := result.Unwrap()
	series, ok := queried.Data.(core.TimeSeries)
	if !ok {
		return core.Artifact{}, core.NewDataError("ingress", "upstream query for "+target.Name+" did not return a time series")
	}
	series.Units = target.Units
	if target.Frequency > 0 {
		series.SamplingPeriod = time.Duration(float64(time.Second) / target.Frequency)
	}
	series.Description = target.Description

	out := core.NewCanonicalPath(pipelineTitle, event.Name, StageName, target.Name)
	return core.NewArtifact(out, core.ArtifactTypeTimeSeries, series).WithDescription(target.Description), nil
}

// existingMode resolves each (event, target) from an already-ingested
// origin (filesystem, document store, or peer) and re-stores it under
// the pipeline's own namespace: an explicit cross-namespace copy, never
// a rename, so each run owns a self-contained tree.
type existingMode struct {
	source core.DataSource
	origin string
}

func (m *existingMode) fetch(ctx context.Context, _ core.DataSource, target core.TimeSeriesTarget, event core.Event, pipelineTitle string) (core.Artifact, error) {
	in := core.NewCanonicalPath(m.origin, event.Name, StageName, target.Field)

	result, err := m.source.Get(ctx, in, nil)
	if err != nil {
		return core.Artifact{}, err
	}
	if result.IsErr() {
		return core.Artifact{}, result.UnwrapErr()
	}

	existing := result.Unwrap()
	out := core.NewCanonicalPath(pipelineTitle, event.Name, StageName, target.Name)
	artifact := core.NewArtifact(out, existing.FileType, existing.Data).WithDescription(existing.Description)
	for k, v := range existing.Metadata {
		artifact = artifact.WithMetadata(k, v)
	}
	return artifact, nil
}
