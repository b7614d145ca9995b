package datasource

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// UpstreamStore is the read-only telemetry backend: canonical_path is
// interpreted as (bucket=origin, measurement=event, car=source, field=name),
// matching the path ingress's upstreamMode builds from a
// TimeSeriesTarget, with a time window supplied via Get's hints. It
// never accepts Store; attempts return ErrNotAllowed.
type UpstreamStore struct {
	client influxdb2.Client
	org    string
}

// NewUpstreamStore opens an InfluxDB client against url, authenticated
// with token, scoped to org.
func NewUpstreamStore(url, token, org string) *UpstreamStore {
	return &UpstreamStore{client: influxdb2.NewClient(url, token), org: org}
}

// Store always fails: UpstreamStore is a read-only view over telemetry
// already captured by the vehicle's data acquisition system.
func (s *UpstreamStore) Store(ctx context.Context, artifact core.Artifact) (core.ArtifactLoader, error) {
	return core.ArtifactLoader{}, core.NewDataErrorWithCause("upstream_store", "Store is not supported on UpstreamStore", core.ErrNotAllowed)
}

// QueryHints carries the additional parameters Get needs beyond the
// canonical path: the event window and the clock-skew offset to apply
// uniformly to both bounds. The car tag travels in the canonical path
// itself (path.Source), not in hints.
type QueryHints struct {
	Start  time.Time
	Stop   time.Time
	Offset time.Duration
}

func hintsFrom(hints map[string]any) QueryHints {
	var h QueryHints
	if hints == nil {
		return h
	}
	if v, ok := hints["start"].(time.Time); ok {
		h.Start = v
	}
	if v, ok := hints["stop"].(time.Time); ok {
		h.Stop = v
	}
	if v, ok := hints["offset"].(time.Duration); ok {
		h.Offset = v
	}
	return h
}

// buildFluxQuery renders the Flux source for one (bucket, measurement,
// car, field) cell over [start, stop]. It is a pure function so the
// bucket/measurement/car/field wiring can be asserted without a live
// InfluxDB connection.
func buildFluxQuery(path core.CanonicalPath, start, stop time.Time) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q and r.car == %q)
`, path.Origin, start.Format(time.RFC3339), stop.Format(time.RFC3339), path.Event, path.Name, path.Source)
}

// Get queries bucket=path.Origin, measurement=path.Event, field=path.Name,
// car=path.Source, over [start+offset, stop+offset], returning the
// result windowed as a TimeSeries. Offset is added to both bounds
// uniformly, accommodating clock skew between the vehicle's clock and
// the telemetry database's.
func (s *UpstreamStore) Get(ctx context.Context, path core.CanonicalPath, hints map[string]any) (core.Result[core.Artifact], error) {
	h := hintsFrom(hints)
	start := h.Start.Add(h.Offset)
	stop := h.Stop.Add(h.Offset)

	query := buildFluxQuery(path, start, stop)

	queryAPI := s.client.QueryAPI(s.org)
	result, err := queryAPI.Query(ctx, query)
	if err != nil {
		return core.Result[core.Artifact]{}, core.NewIOError("upstream_store_query", err)
	}
	defer result.Close()

	var timestamps []time.Time
	var values []float64
	for result.Next() {
		record := result.Record()
		timestamps = append(timestamps, record.Time())
		if v, ok := record.Value().(float64); ok {
			values = append(values, v)
		} else {
			values = append(values, 0)
		}
	}
	if result.Err() != nil {
		return core.Result[core.Artifact]{}, core.NewIOError("upstream_store_query", result.Err())
	}

	if len(timestamps) == 0 {
		return core.Err[core.Artifact](core.ErrNotFound), nil
	}

	series := core.TimeSeries{Timestamps: timestamps, Values: values}
	artifact := core.NewArtifact(path, core.ArtifactTypeTimeSeries, series)
	return core.Ok(artifact), nil
}

// Close releases the underlying InfluxDB client's connections.
func (s *UpstreamStore) Close(ctx context.Context) error {
	s.client.Close()
	return nil
}
