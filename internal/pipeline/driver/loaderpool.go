package driver

import "github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"

// loaderPool accumulates the ArtifactLoaders produced for one event,
// indexed by the stage that produced them (CanonicalPath.Source). A
// downstream stage's declared Dependencies name producing stages, not
// individual artifact names, so loadersFor simply concatenates every
// loader recorded under each named dependency.
type loaderPool struct {
	bySource map[string][]core.ArtifactLoader
}

func newLoaderPool() *loaderPool {
	return &loaderPool{bySource: make(map[string][]core.ArtifactLoader)}
}

// add records loaders under the stage name that produced them, read
// from each loader's own CanonicalPath.Source.
func (p *loaderPool) add(loaders ...core.ArtifactLoader) {
	for _, loader := range loaders {
		source := loader.CanonicalPath.Source
		p.bySource[source] = append(p.bySource[source], loader)
	}
}

// loadersFor returns every loader produced by any stage in deps, in
// dependency order.
func (p *loaderPool) loadersFor(deps []string) []core.ArtifactLoader {
	var out []core.ArtifactLoader
	for _, dep := range deps {
		out = append(out, p.bySource[dep]...)
	}
	return out
}
