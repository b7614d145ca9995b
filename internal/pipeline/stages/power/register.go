package power

import "github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"

func init() {
	err := core.DefaultRegistry().Register(StageName, Dependencies, func(ctx *core.Context, eventName, stageDataRoot string) (core.Stage, error) {
		return New(ctx, eventName, nil), nil
	})
	if err != nil {
		panic(err)
	}
}
