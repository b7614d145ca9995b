package ingress

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

type cellJob struct {
	event  core.Event
	target core.TimeSeriesTarget
}

type cellResult struct {
	event    core.Event
	target   core.TimeSeriesTarget
	artifact core.Artifact
	err      error
	skipped  bool
}

// Run extracts every (event, target) cell not in skipTargets through
// the stage's mode, stores the result under the pipeline's namespace
// via primaryStore, and returns the event→target view. A cell that
// fails to extract or store is recorded as a null-data artifact rather
// than aborting the run; skipped targets are recorded the same way
// without ever being queried.
//
// Each event's cells fan out over a pool of at most concurrency workers
// (4 when concurrency is not positive) per the jobs/results
// channel-plus-WaitGroup pattern. Events run in parallel under an outer
// errgroup, each with its own pool, so up to concurrency workers per
// event can be querying at once.
func (s *Stage) Run(ctx context.Context, primaryStore core.DataSource, targets []core.TimeSeriesTarget, events []core.Event, skipTargets map[string]struct{}, concurrency int) (core.IngressView, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	view := core.NewIngressView()
	var viewMu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	for _, event := range events {
		event := event
		group.Go(func() error {
			results := s.runEvent(gctx, primaryStore, event, targets, skipTargets, concurrency)
			viewMu.Lock()
			defer viewMu.Unlock()
			for _, r := range results {
				loader := s.storeResult(gctx, primaryStore, r)
				view.Set(event.Name, r.target.Name, loader)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return view, err
	}
	return view, nil
}

// runEvent fans out one event's targets across a bounded worker pool.
func (s *Stage) runEvent(ctx context.Context, primaryStore core.DataSource, event core.Event, targets []core.TimeSeriesTarget, skipTargets map[string]struct{}, concurrency int) []cellResult {
	toFetch := make([]core.TimeSeriesTarget, 0, len(targets))
	results := make([]cellResult, 0, len(targets))

	for _, target := range targets {
		if _, skip := skipTargets[target.Name]; skip {
			results = append(results, cellResult{event: event, target: target, skipped: true})
			continue
		}
		toFetch = append(toFetch, target)
	}
	if len(toFetch) == 0 {
		return results
	}

	if concurrency > len(toFetch) {
		concurrency = len(toFetch)
	}

	jobs := make(chan cellJob, len(toFetch))
	out := make(chan cellResult, len(toFetch))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				artifact, err := s.mode.fetch(ctx, primaryStore, job.target, job.event, s.ctx.Title())
				out <- cellResult{event: job.event, target: job.target, artifact: artifact, err: err}
			}
		}()
	}

	go func() {
		for _, target := range toFetch {
			jobs <- cellJob{event: event, target: target}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		if r.err != nil {
			s.logger.Error("failed to ingest cell",
				slog.String("event", r.event.Name),
				slog.String("target", r.target.Name),
				slog.String("error", r.err.Error()))
		}
		results = append(results, r)
	}
	return results
}

// storeResult persists a successfully-fetched artifact, or a null-data
// placeholder for a skipped or failed cell, returning a loader either
// way so downstream Extract calls always have something to invoke.
func (s *Stage) storeResult(ctx context.Context, primaryStore core.DataSource, r cellResult) core.ArtifactLoader {
	path := core.NewCanonicalPath(s.ctx.Title(), r.event.Name, StageName, r.target.Name)

	if r.skipped || r.err != nil {
		null := core.NewArtifact(path, core.ArtifactTypeTimeSeries, nil)
		loader, err := primaryStore.Store(ctx, null)
		if err != nil {
			return core.NullLoader(path, core.ArtifactTypeTimeSeries)
		}
		return loader
	}

	loader, err := primaryStore.Store(ctx, r.artifact)
	if err != nil {
		s.logger.Error("failed to store ingested artifact",
			slog.String("event", r.event.Name),
			slog.String("target", r.target.Name),
			slog.String("error", err.Error()))
		return core.NullLoader(path, core.ArtifactTypeTimeSeries)
	}
	return loader
}
