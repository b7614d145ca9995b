package ingress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[core.CanonicalPath]core.Artifact
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[core.CanonicalPath]core.Artifact)}
}

func (m *memoryStore) Store(ctx context.Context, artifact core.Artifact) (core.ArtifactLoader, error) {
	m.mu.Lock()
	m.data[artifact.CanonicalPath] = artifact
	m.mu.Unlock()

	path := artifact.CanonicalPath
	return core.NewArtifactLoader(path, func(ctx context.Context) (core.Result[core.Artifact], error) {
		return m.Get(ctx, path, nil)
	}), nil
}

func (m *memoryStore) Get(ctx context.Context, path core.CanonicalPath, hints map[string]any) (core.Result[core.Artifact], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	artifact, ok := m.data[path]
	if !ok {
		return core.Err[core.Artifact](core.ErrNotFound), nil
	}
	return core.Ok(artifact), nil
}

func (m *memoryStore) Close(ctx context.Context) error { return nil }

func TestExistingMode_CopiesAcrossNamespace(t *testing.T) {
	core.ResetContextForTesting()
	ctx, err := core.NewContext("run-b", newMemoryStore(), nil)
	require.NoError(t, err)

	origin := newMemoryStore()
	originPath := core.NewCanonicalPath("run-a", "drive1", "ingress", "pack_voltage")
	seed := core.NewArtifact(originPath, core.ArtifactTypeTimeSeries, core.TimeSeries{Values: []float64{1, 2, 3}})
	_, err = origin.Store(context.Background(), seed)
	require.NoError(t, err)

	stage, err := New(ctx, origin, Config{Kind: SourceExisting, IngressOrigin: "run-a", Concurrency: 2}, nil)
	require.NoError(t, err)

	target := core.TimeSeriesTarget{Name: "pack_voltage", Field: "pack_voltage"}
	event := core.Event{Name: "drive1"}

	primary := newMemoryStore()
	view, err := stage.Run(context.Background(), primary, []core.TimeSeriesTarget{target}, []core.Event{event}, nil, 2)
	require.NoError(t, err)

	loader := view.Get("drive1", "pack_voltage")
	result, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.True(t, result.IsOk())
	artifact := result.Unwrap()
	assert.Equal(t, "run-b", artifact.CanonicalPath.Origin)
	series, ok := artifact.Data.(core.TimeSeries)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, series.Values)
}

func TestExistingMode_RejectsSelfOrigin(t *testing.T) {
	core.ResetContextForTesting()
	ctx, err := core.NewContext("run-c", newMemoryStore(), nil)
	require.NoError(t, err)

	_, err = New(ctx, newMemoryStore(), Config{Kind: SourceExisting, IngressOrigin: "run-c"}, nil)
	require.Error(t, err)
}

func TestRun_SkippedTargetYieldsNullArtifact(t *testing.T) {
	core.ResetContextForTesting()
	ctx, err := core.NewContext("run-d", newMemoryStore(), nil)
	require.NoError(t, err)

	stage, err := New(ctx, newMemoryStore(), Config{Kind: SourceExisting, IngressOrigin: "run-a"}, nil)
	require.NoError(t, err)

	target := core.TimeSeriesTarget{Name: "motor_current", Field: "motor_current"}
	event := core.Event{Name: "drive1", Start: time.Now(), Stop: time.Now()}

	primary := newMemoryStore()
	skip := map[string]struct{}{"motor_current": {}}
	view, err := stage.Run(context.Background(), primary, []core.TimeSeriesTarget{target}, []core.Event{event}, skip, 2)
	require.NoError(t, err)

	loader := view.Get("drive1", "motor_current")
	result, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.True(t, result.IsOk())
	assert.True(t, result.Unwrap().IsNull())
}
