// Package driver wires configuration, DataSources, the Ingress stage,
// and the downstream StageRegistry together into the linear sequence
// that runs one pipeline invocation end to end.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sunbeam-telemetry/sunbeam/internal/config"
	"github.com/sunbeam-telemetry/sunbeam/internal/datasource"
	"github.com/sunbeam-telemetry/sunbeam/internal/ledger"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/stages/ingress"
)

// Options captures the per-invocation knobs the CLI layer collects
// from flags, on top of whatever the TOML config file already fixes.
type Options struct {
	ConfigPath           string
	PipelineTitle        string
	StagesToSkip         []string
	IngressTargetsToSkip []string
	StageDataRoot        string
}

// Driver runs one pipeline invocation from a loaded configuration
// through to a finalized run-ledger record. It retains no state across
// calls to Run.
type Driver struct {
	logger *slog.Logger
}

// New constructs a Driver, defaulting to slog.Default() if logger is nil.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger}
}

// Run executes the nine-step pipeline sequence: load config, load
// targets, load events, build the stage DAG, construct the
// DataSources and Context, open a run-ledger record, run Ingress once,
// run every downstream stage per event in topological order, then
// finalize the ledger record.
func (d *Driver) Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("driver: loading config: %w", err)
	}

	if opts.PipelineTitle == "" {
		return fmt.Errorf("driver: pipeline title is required")
	}

	targetsRaw, err := os.ReadFile(cfg.Pipeline.IngressDescriptionFile)
	if err != nil {
		return fmt.Errorf("driver: reading targets file: %w", err)
	}
	targets, err := config.LoadTargets(targetsRaw)
	if err != nil {
		return fmt.Errorf("driver: loading targets: %w", err)
	}

	eventsRaw, err := os.ReadFile(cfg.Pipeline.EventsDescriptionFile)
	if err != nil {
		return fmt.Errorf("driver: reading events file: %w", err)
	}
	events, err := config.LoadEvents(eventsRaw)
	if err != nil {
		return fmt.Errorf("driver: loading events: %w", err)
	}

	// Downstream stages name ingress as a dependency, so it has to be
	// known to the registry for the DAG to resolve. The driver runs it
	// once itself below rather than constructing it per event.
	if !core.DefaultRegistry().Has(ingress.StageName) {
		regErr := core.DefaultRegistry().Register(ingress.StageName, nil, func(*core.Context, string, string) (core.Stage, error) {
			return nil, core.NewStageError(ingress.StageName, "ingress is run once by the driver, not constructed per event")
		})
		if regErr != nil {
			return fmt.Errorf("driver: registering ingress stage: %w", regErr)
		}
	}

	order, err := core.BuildExecutionOrder(core.DefaultRegistry(), cfg.Pipeline.StagesToRun)
	if err != nil {
		return fmt.Errorf("driver: building stage DAG: %w", err)
	}

	stageSource, err := datasource.Build(ctx, toDataSourceConfig(cfg.StageDataSource))
	if err != nil {
		return fmt.Errorf("driver: constructing stage data source: %w", err)
	}
	defer func() {
		if closeErr := stageSource.Close(ctx); closeErr != nil {
			d.logger.Error("failed to close stage data source", slog.String("error", closeErr.Error()))
		}
	}()

	ingressSource, err := datasource.Build(ctx, toDataSourceConfig(cfg.IngressDataSource))
	if err != nil {
		return fmt.Errorf("driver: constructing ingress data source: %w", err)
	}
	defer func() {
		if closeErr := ingressSource.Close(ctx); closeErr != nil {
			d.logger.Error("failed to close ingress data source", slog.String("error", closeErr.Error()))
		}
	}()

	title := opts.PipelineTitle

	runCtx, err := core.NewContext(title, stageSource, opts.StagesToSkip)
	if err != nil {
		return fmt.Errorf("driver: constructing run context: %w", err)
	}

	led, err := ledger.Open(cfg.Ledger, d.logger)
	if err != nil {
		return fmt.Errorf("driver: opening run ledger: %w", err)
	}
	defer func() {
		if closeErr := led.Close(); closeErr != nil {
			d.logger.Error("failed to close run ledger", slog.String("error", closeErr.Error()))
		}
	}()

	rec, err := led.StartRun(ctx, title, cfg.Pipeline.StagesToRun)
	if err != nil {
		return fmt.Errorf("driver: starting run record: %w", err)
	}
	defer func() {
		if finishErr := led.FinishRun(ctx, rec, err); finishErr != nil {
			d.logger.Error("failed to finalize run record", slog.String("error", finishErr.Error()))
		}
	}()

	ingressKind, ingressOrigin := ingressModeFor(cfg.IngressDataSource)
	ingressStage, err := ingress.New(runCtx, ingressSource, ingress.Config{
		Kind:          ingressKind,
		IngressOrigin: ingressOrigin,
		Concurrency:   cfg.Ingress.Concurrency,
	}, d.logger)
	if err != nil {
		return fmt.Errorf("driver: constructing ingress stage: %w", err)
	}

	skipTargets := make(map[string]struct{}, len(opts.IngressTargetsToSkip))
	for _, name := range opts.IngressTargetsToSkip {
		skipTargets[name] = struct{}{}
	}

	view, err := ingressStage.Run(ctx, stageSource, targets, events, skipTargets, cfg.Ingress.Concurrency)
	if err != nil {
		return fmt.Errorf("driver: running ingress stage: %w", err)
	}

	for _, event := range events {
		pool := newLoaderPool()
		for _, targetName := range view.Targets(event.Name) {
			pool.add(view.Get(event.Name, targetName))
		}

		for _, stageName := range order {
			if stageName == ingress.StageName {
				continue
			}
			deps, depErr := core.DefaultRegistry().Dependencies(stageName)
			if depErr != nil {
				return fmt.Errorf("driver: %w", depErr)
			}

			stage, constructErr := core.DefaultRegistry().Construct(stageName, runCtx, event.Name, opts.StageDataRoot)
			if constructErr != nil {
				return fmt.Errorf("driver: constructing stage %s: %w", stageName, constructErr)
			}

			outputs, runErr := core.RunStage(ctx, stage, pool.loadersFor(deps)...)
			if runErr != nil {
				return fmt.Errorf("driver: running stage %s for event %s: %w", stageName, event.Name, runErr)
			}
			pool.add(outputs...)
		}
	}

	return nil
}

// toDataSourceConfig translates a config.DataSourceConfig section into
// the backend-agnostic datasource.Config the factory accepts.
func toDataSourceConfig(src config.DataSourceConfig) datasource.Config {
	switch src.Type {
	case config.DataSourceFilesystem:
		return datasource.Config{Kind: datasource.KindFilesystem, Directory: src.FSRoot}
	case config.DataSourceMongoDB:
		return datasource.Config{
			Kind:            datasource.KindDocument,
			MongoURI:        src.MongoURI,
			MongoDatabase:   src.MongoDatabase,
			MongoCollection: src.MongoCollection,
		}
	case config.DataSourceInfluxDB:
		return datasource.Config{
			Kind:        datasource.KindUpstream,
			InfluxURL:   src.URL,
			InfluxToken: os.Getenv("SUNBEAM_INFLUXDB_TOKEN"),
			InfluxOrg:   os.Getenv("SUNBEAM_INFLUXDB_ORG"),
		}
	case config.DataSourcePeer:
		return datasource.Config{Kind: datasource.KindPeer, PeerBaseURL: src.APIURL}
	default:
		return datasource.Config{}
	}
}

// ingressModeFor maps an ingress_data_source section to the ingress
// stage's upstream/existing mode and, for existing mode, the origin to
// copy from.
func ingressModeFor(src config.DataSourceConfig) (ingress.SourceKind, string) {
	if src.Type == config.DataSourceInfluxDB {
		return ingress.SourceUpstream, ""
	}
	return ingress.SourceExisting, src.IngressOrigin
}
