// Package scheduler re-invokes the pipeline driver on a cron schedule,
// for deployments that want sunbeam to run unattended (an hourly
// ingest, say) rather than being triggered by an external cron daemon
// invoking `sunbeam run` directly.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/driver"
)

// RunFunc executes one pipeline invocation. Satisfied by
// (*driver.Driver).Run with opts closed over by the caller.
type RunFunc func(ctx context.Context) error

// Scheduler fires RunFunc on a cron schedule using robfig/cron as the
// timing engine, recovering from panics in the invoked run so one bad
// cycle doesn't take down the whole process.
type Scheduler struct {
	mu sync.Mutex

	run    RunFunc
	logger *slog.Logger

	parser cron.Parser
	engine *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running bool
}

// New builds a Scheduler that invokes run each time the expression
// later passed to Start fires. That expression is a standard 5-field
// cron expression or a descriptor like "@hourly" or "@every 30m";
// 6-field expressions with a seconds field are rejected.
func New(run RunFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	engine := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))
	return &Scheduler{
		run:    run,
		logger: logger,
		parser: parser,
		engine: engine,
	}
}

// Start validates cronExpr, registers it, and begins firing runs until
// ctx is cancelled or Stop is called. Start blocks until the schedule
// stops; callers that want to keep doing other work should run it in
// its own goroutine.
func (s *Scheduler) Start(ctx context.Context, cronExpr string) error {
	if _, err := s.parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q: %w", cronExpr, err)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	entryID, err := s.engine.AddFunc(cronExpr, s.fire)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("scheduler: registering schedule: %w", err)
	}

	s.engine.Start()
	s.logger.Info("scheduler started",
		slog.String("cron", cronExpr),
		slog.Time("next_run", s.engine.Entry(entryID).Next))

	<-s.ctx.Done()
	s.Stop()
	return nil
}

// fire runs one pipeline invocation, logging its outcome. A run that
// returns an error does not stop the schedule; the next scheduled
// firing still happens.
func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	s.logger.Info("scheduled run starting")
	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed",
			slog.Duration("elapsed", time.Since(started)),
			slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled run completed", slog.Duration("elapsed", time.Since(started)))
}

// Stop halts the cron engine, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	stopCtx := s.engine.Stop()
	<-stopCtx.Done()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// driverRunFunc adapts driver.Driver.Run into a RunFunc bound to opts,
// the shape NewForDriver hands to New.
func driverRunFunc(d *driver.Driver, opts driver.Options) RunFunc {
	return func(ctx context.Context) error {
		return d.Run(ctx, opts)
	}
}

// NewForDriver is a convenience constructor binding a Driver and its
// Options into a Scheduler, so the CLI layer doesn't need to build the
// RunFunc closure itself.
func NewForDriver(d *driver.Driver, opts driver.Options, logger *slog.Logger) *Scheduler {
	return New(driverRunFunc(d, opts), logger)
}
