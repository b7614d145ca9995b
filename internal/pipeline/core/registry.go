package core

import (
	"reflect"
	"sync"
)

// StageConstructor builds a Stage given the run Context, the name of
// the event currently being processed, and this stage's static
// configuration directory. Stage packages register a constructor from
// their own init(), mirroring the original's module-load side effect
// but made an explicit call per the re-architecture note: registration
// targets a single builder-owned registry rather than mutating the
// registry as a class-definition side effect.
type StageConstructor func(ctx *Context, eventName string, stageDataRoot string) (Stage, error)

type registryEntry struct {
	constructor  StageConstructor
	dependencies []string
}

// StageRegistry is the process-wide name-to-constructor table. It is
// written only during package init() and is otherwise read-only for the
// lifetime of the process.
type StageRegistry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

var defaultRegistry = &StageRegistry{entries: make(map[string]registryEntry)}

// DefaultRegistry returns the process-wide registry that stage packages
// register themselves into from init().
func DefaultRegistry() *StageRegistry {
	return defaultRegistry
}

// Register records a stage's constructor and declared dependencies
// under stageName. Re-registering the identical constructor under the
// same name is a no-op. Registering a different constructor under a
// name that is already taken is a ConfigurationError.
func (r *StageRegistry) Register(stageName string, dependencies []string, constructor StageConstructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[stageName]; ok {
		if reflect.ValueOf(existing.constructor).Pointer() == reflect.ValueOf(constructor).Pointer() {
			return nil
		}
		return NewConfigurationError("stage_registry", "conflicting registration for stage "+stageName)
	}

	r.entries[stageName] = registryEntry{constructor: constructor, dependencies: dependencies}
	return nil
}

// Has reports whether stageName is registered.
func (r *StageRegistry) Has(stageName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[stageName]
	return ok
}

// Dependencies returns the declared dependencies of stageName, or an
// error if stageName is unregistered.
func (r *StageRegistry) Dependencies(stageName string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[stageName]
	if !ok {
		return nil, NewConfigurationError("stage_registry", "reference to unregistered stage "+stageName)
	}
	return entry.dependencies, nil
}

// Construct builds the stage registered under stageName for the given
// event.
func (r *StageRegistry) Construct(stageName string, ctx *Context, eventName string, stageDataRoot string) (Stage, error) {
	r.mu.RLock()
	entry, ok := r.entries[stageName]
	r.mu.RUnlock()
	if !ok {
		return nil, NewConfigurationError("stage_registry", "reference to unregistered stage "+stageName)
	}
	return entry.constructor(ctx, eventName, stageDataRoot)
}

// Names returns every registered stage name.
func (r *StageRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
