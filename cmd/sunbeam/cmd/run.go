package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sunbeam-telemetry/sunbeam/internal/config"
	"github.com/sunbeam-telemetry/sunbeam/internal/observability"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/driver"
)

var (
	pipelineTitle string
	skipStages    []string
	skipTargets   []string
	stageDataRoot string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: `Loads the primary configuration, the events description file, and the
targets description file, then executes the requested stages over every
event, recording the outcome in the run ledger.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&pipelineTitle, "title", "", "pipeline title; becomes the origin of every artifact this run produces (required)")
	runCmd.Flags().StringSliceVar(&skipStages, "skip-stage", nil, "stage names to execute in skip mode instead of running them")
	runCmd.Flags().StringSliceVar(&skipTargets, "skip-target", nil, "ingress target names to skip instead of querying")
	runCmd.Flags().StringVar(&stageDataRoot, "stage-data-root", "", "root directory of per-stage static configuration files")
	_ = runCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flag := logLevelFlag(); flag != nil && flag.Changed {
		cfg.Logging.Level = logLevelOverride
	}

	logger := observability.NewLogger(cfg.Logging)
	observability.SetDefault(logger)

	d := driver.New(logger)
	return d.Run(cmd.Context(), driver.Options{
		ConfigPath:           cfgFile,
		PipelineTitle:        pipelineTitle,
		StagesToSkip:         skipStages,
		IngressTargetsToSkip: skipTargets,
		StageDataRoot:        stageDataRoot,
	})
}
