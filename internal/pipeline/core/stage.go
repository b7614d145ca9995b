package core

import (
	"context"
	"log/slog"
)

// Stage is the abstract extract/transform/load contract every pipeline
// unit implements. StageName and Dependencies are static per
// implementation. The driver does not call the phases directly; it
// passes the stage to RunStage.
type Stage interface {
	StageName() string
	Dependencies() []string

	Extract(ctx context.Context, loaders ...ArtifactLoader) ([]Result[any], error)
	Transform(ctx context.Context, results ...Result[any]) ([]Result[any], error)
	Load(ctx context.Context, results ...Result[any]) ([]ArtifactLoader, error)

	// SkipStage returns loaders to null-data artifacts for each declared
	// output, used in place of Extract/Transform/Load when the stage is
	// in the run's skip set.
	SkipStage(ctx context.Context) ([]ArtifactLoader, error)
}

// BaseStage provides the bookkeeping shared by every concrete Stage:
// the owning Context, a component-scoped logger, and the declared
// dependency list that RunStage checks before calling Extract. Concrete stages embed it
// the way the teacher's stage implementations embed shared.BaseStage.
type BaseStage struct {
	Ctx    *Context
	Logger *slog.Logger
	Name   string
	Deps   []string
}

// NewBaseStage constructs a BaseStage, defaulting to slog.Default() if
// logger is nil.
func NewBaseStage(ctx *Context, name string, deps []string, logger *slog.Logger) BaseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return BaseStage{Ctx: ctx, Logger: logger.With(slog.String("stage", name)), Name: name, Deps: deps}
}

func (b BaseStage) StageName() string {
	return b.Name
}

func (b BaseStage) Dependencies() []string {
	return b.Deps
}

// EnsureDependenciesDeclared is the Go equivalent of the original's
// @ensure_dependencies_declared decorator: every loader's
// CanonicalPath.Source must appear in the stage's declared
// dependencies, or the stage is in breach of the DAG contract.
func EnsureDependenciesDeclared(stageName string, dependencies []string, loaders ...ArtifactLoader) error {
	declared := make(map[string]struct{}, len(dependencies))
	for _, d := range dependencies {
		declared[d] = struct{}{}
	}
	for _, loader := range loaders {
		if _, ok := declared[loader.CanonicalPath.Source]; !ok {
			return NewStageError(stageName, loader.CanonicalPath.Source+" must be declared in dependencies of "+stageName)
		}
	}
	return nil
}

// RunStage is the public stage entry point shared by every concrete Stage:
// if the stage is in the run's skip set it calls SkipStage, otherwise
// it checks the loaders against the declared dependencies and runs
// Extract, Transform, Load in sequence, threading each phase's output
// into the next. The driver calls RunStage for every downstream stage,
// so concrete stages do not reimplement this control flow, the way the
// teacher's BaseStage centralizes Cleanup/NewResult.
func RunStage(ctx context.Context, s Stage, loaders ...ArtifactLoader) ([]ArtifactLoader, error) {
	baseCtx, err := CurrentContext()
	if err != nil {
		return nil, err
	}
	if baseCtx.ShouldSkip(s.StageName()) {
		return s.SkipStage(ctx)
	}

	if err := EnsureDependenciesDeclared(s.StageName(), s.Dependencies(), loaders...); err != nil {
		return nil, err
	}

	extracted, err := s.Extract(ctx, loaders...)
	if err != nil {
		return nil, err
	}
	transformed, err := s.Transform(ctx, extracted...)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, transformed...)
}
