package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunbeam-telemetry/sunbeam/internal/config"
	"github.com/sunbeam-telemetry/sunbeam/internal/observability"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/driver"
	"github.com/sunbeam-telemetry/sunbeam/internal/scheduler"
)

var cronExpr string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline repeatedly on a cron schedule",
	Long: `Re-invokes the same pipeline run that "sunbeam run" performs once,
firing on the cron expression given by --cron instead of exiting after
one invocation. Accepts standard 5-field cron expressions as well as
descriptors like "@hourly" or "@every 30m". Runs until interrupted.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&pipelineTitle, "title", "", "pipeline title; becomes the origin of every artifact this run produces (required)")
	scheduleCmd.Flags().StringSliceVar(&skipStages, "skip-stage", nil, "stage names to execute in skip mode instead of running them")
	scheduleCmd.Flags().StringSliceVar(&skipTargets, "skip-target", nil, "ingress target names to skip instead of querying")
	scheduleCmd.Flags().StringVar(&stageDataRoot, "stage-data-root", "", "root directory of per-stage static configuration files")
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression or descriptor (e.g. \"0 */6 * * *\", \"@hourly\") (required)")
	_ = scheduleCmd.MarkFlagRequired("title")
	_ = scheduleCmd.MarkFlagRequired("cron")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
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
	opts := driver.Options{
		ConfigPath:           cfgFile,
		PipelineTitle:        pipelineTitle,
		StagesToSkip:         skipStages,
		IngressTargetsToSkip: skipTargets,
		StageDataRoot:        stageDataRoot,
	}

	s := scheduler.NewForDriver(d, opts, logger)
	return s.Start(cmd.Context(), cronExpr)
}
