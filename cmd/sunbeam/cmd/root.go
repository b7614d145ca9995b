// Package cmd implements the CLI commands for sunbeam.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/sunbeam-telemetry/sunbeam/internal/version"
)

var cfgFile string
var logLevelOverride string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "sunbeam",
	Short:   "Reproducible ETL engine for vehicle telemetry",
	Version: version.Short(),
	Long: `sunbeam executes a directed acyclic graph of stages that materialize
named artifacts into a content-addressed artifact store, driven by a
declarative description of telemetry targets and event windows.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "sunbeam.toml", "path to the primary configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "override the config file's logging.level (trace, debug, info, warn, error)")
}

// logLevelFlag returns the --log-level persistent flag, so callers can
// check whether it was explicitly set (Flag.Changed) before overriding
// the value decoded from the config file.
func logLevelFlag() *pflag.Flag {
	return rootCmd.PersistentFlags().Lookup("log-level")
}
