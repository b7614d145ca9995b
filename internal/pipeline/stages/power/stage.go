// Package power computes pack and motor power from ingested voltage
// and current time series. It is the pipeline's minimal reference
// downstream stage: every other domain-specific stage would follow the
// same extract/transform/load shape over different inputs.
package power

import (
	"context"
	"log/slog"

	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

const StageName = "power"

var Dependencies = []string{"ingress"}

// Input target names this stage expects among the loaders it is
// handed at Extract time.
const (
	InputPackVoltage  = "pack_voltage"
	InputPackCurrent  = "pack_current"
	InputMotorCurrent = "motor_current"
	InputMotorVoltage = "motor_voltage"

	OutputPackPower  = "pack_power"
	OutputMotorPower = "motor_power"
)

// Stage computes pack_power = pack_voltage * pack_current and
// motor_power = motor_voltage * motor_current for one event.
type Stage struct {
	core.BaseStage
	eventName string
}

// New constructs a Stage for the given event. The constructor
// registered in register.go accepts and ignores stageDataRoot to
// satisfy core.StageConstructor; this stage has no static
// configuration of its own.
func New(ctx *core.Context, eventName string, logger *slog.Logger) *Stage {
	return &Stage{
		BaseStage: core.NewBaseStage(ctx, StageName, Dependencies, logger),
		eventName: eventName,
	}
}

// Extract resolves the four named loaders this stage needs, tolerating
// absent ones by leaving their Result unset as an Err.
func (s *Stage) Extract(ctx context.Context, loaders ...core.ArtifactLoader) ([]core.Result[any], error) {
	if err := core.EnsureDependenciesDeclared(s.StageName(), s.Dependencies(), loaders...); err != nil {
		return nil, err
	}

	byName := make(map[string]core.ArtifactLoader, len(loaders))
	for _, loader := range loaders {
		byName[loader.CanonicalPath.Name] = loader
	}

	names := []string{InputPackVoltage, InputPackCurrent, InputMotorCurrent, InputMotorVoltage}
	out := make([]core.Result[any], len(names))
	for i, name := range names {
		loader, ok := byName[name]
		if !ok {
			out[i] = core.Err[any](core.NewDataError(StageName, name+" was not provided to power stage"))
			continue
		}
		result, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		if result.IsErr() {
			out[i] = core.Err[any](result.UnwrapErr())
			continue
		}
		artifact := result.Unwrap()
		if artifact.IsNull() {
			out[i] = core.Err[any](core.NewDataError(StageName, name+" has no data for this event"))
			continue
		}
		out[i] = core.Ok[any](artifact.Data)
	}
	return out, nil
}

// Transform computes pack_power and motor_power, each independently
// Ok or Err depending on whether its two inputs were both present.
func (s *Stage) Transform(ctx context.Context, results ...core.Result[any]) ([]core.Result[any], error) {
	if len(results) != 4 {
		return nil, core.NewStageError(StageName, "expected exactly 4 extract results")
	}
	packVoltage, packCurrent, motorCurrent, motorVoltage := results[0], results[1], results[2], results[3]

	packPower := multiplySeries(packVoltage, packCurrent, "Pack Power")
	motorPower := multiplySeries(motorVoltage, motorCurrent, "Motor Power")

	return []core.Result[any]{packPower, motorPower}, nil
}

func multiplySeries(a, b core.Result[any], description string) core.Result[any] {
	if a.IsErr() {
		return core.Err[any](a.UnwrapErr())
	}
	if b.IsErr() {
		return core.Err[any](b.UnwrapErr())
	}

	seriesA, ok := a.Unwrap().(core.TimeSeries)
	if !ok {
		return core.Err[any](core.NewDataError(StageName, "expected a time series input"))
	}
	seriesB, ok := b.Unwrap().(core.TimeSeries)
	if !ok {
		return core.Err[any](core.NewDataError(StageName, "expected a time series input"))
	}

	alignedA, alignedB := core.Align(seriesA, seriesB)
	product := core.Multiply(alignedA, alignedB, "W", description)
	return core.Ok[any](product)
}

// Load stores pack_power and motor_power under this event's namespace,
// recording a null artifact for whichever side failed to compute.
func (s *Stage) Load(ctx context.Context, results ...core.Result[any]) ([]core.ArtifactLoader, error) {
	if len(results) != 2 {
		return nil, core.NewStageError(StageName, "expected exactly 2 transform results")
	}

	names := []string{OutputPackPower, OutputMotorPower}
	loaders := make([]core.ArtifactLoader, len(names))
	for i, name := range names {
		path := core.NewCanonicalPath(s.Ctx.Title(), s.eventName, StageName, name)

		var data any
		if results[i].IsOk() {
			data = results[i].Unwrap()
		}
		artifact := core.NewArtifact(path, core.ArtifactTypeTimeSeries, data)

		loader, err := s.Ctx.PrimaryStore().Store(ctx, artifact)
		if err != nil {
			return nil, err
		}
		loaders[i] = loader
	}
	return loaders, nil
}

// SkipStage returns null-data loaders for both declared outputs.
func (s *Stage) SkipStage(ctx context.Context) ([]core.ArtifactLoader, error) {
	pack := core.NewCanonicalPath(s.Ctx.Title(), s.eventName, StageName, OutputPackPower)
	motor := core.NewCanonicalPath(s.Ctx.Title(), s.eventName, StageName, OutputMotorPower)
	return []core.ArtifactLoader{
		core.NullLoader(pack, core.ArtifactTypeTimeSeries),
		core.NullLoader(motor, core.ArtifactTypeTimeSeries),
	}, nil
}
