package core

import (
	"context"
	"sync"
)

// Context is the run-scoped singleton: the pipeline title, the
// writable primary DataSource, and the set of stage names to skip.
// Exactly one Context exists during a run; a second construction
// attempt is rejected rather than silently replacing the first,
// because stages constructed against the first Context would otherwise
// observe a different title mid-run.
type Context struct {
	title        string
	primaryStore DataSource
	stagesToSkip map[string]struct{}
}

// DataSource is declared here (rather than imported from the
// datasource package) to avoid a dependency cycle: core must not
// import the package that implements it, since datasource
// implementations depend on core's Artifact/Result/CanonicalPath types.
type DataSource interface {
	Store(ctx context.Context, artifact Artifact) (ArtifactLoader, error)
	Get(ctx context.Context, path CanonicalPath, hints map[string]any) (Result[Artifact], error)
	Close(ctx context.Context) error
}

var (
	contextBuilt   bool
	currentContext *Context
	contextMu      sync.Mutex
)

// NewContext constructs the run's Context. A second call in the same
// process returns a ConfigurationError.
func NewContext(title string, primaryStore DataSource, stagesToSkip []string) (*Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()

	if contextBuilt {
		return nil, NewConfigurationError("context", "Context has already been constructed for this process")
	}

	skip := make(map[string]struct{}, len(stagesToSkip))
	for _, name := range stagesToSkip {
		skip[name] = struct{}{}
	}

	currentContext = &Context{
		title:        title,
		primaryStore: primaryStore,
		stagesToSkip: skip,
	}
	contextBuilt = true
	return currentContext, nil
}

// CurrentContext returns the process's Context. It is an error to call
// this before NewContext has succeeded.
func CurrentContext() (*Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()
	if !contextBuilt {
		return nil, NewConfigurationError("context", "Context accessed before construction")
	}
	return currentContext, nil
}

// ResetContextForTesting clears the singleton guard so a test binary
// can construct a fresh Context between cases. Production code has no
// legitimate reason to call this; it exists because go test runs every
// test function for a package in one process, where the singleton
// guard would otherwise reject every Context but the first.
func ResetContextForTesting() {
	contextMu.Lock()
	defer contextMu.Unlock()
	contextBuilt = false
	currentContext = nil
}

// Title returns the pipeline title, which becomes the origin of every
// artifact the run produces.
func (c *Context) Title() string {
	return c.title
}

// PrimaryStore returns the run's writable DataSource.
func (c *Context) PrimaryStore() DataSource {
	return c.primaryStore
}

// ShouldSkip reports whether stageName is in the run's skip set.
func (c *Context) ShouldSkip(stageName string) bool {
	_, ok := c.stagesToSkip[stageName]
	return ok
}
