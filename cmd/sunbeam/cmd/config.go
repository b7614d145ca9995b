package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/sunbeam-telemetry/sunbeam/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for inspecting sunbeam's effective configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Loads the configuration file named by --config and prints the
decoded result in YAML, with sensitive fields (tokens, secrets,
passwords, credentials, DSNs) replaced by [REDACTED].`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	redacted := config.ToRedactedMap(cfg)

	yamlData, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# sunbeam effective configuration")
	fmt.Println("# sensitive fields are redacted")
	fmt.Println()
	fmt.Print(string(yamlData))

	return nil
}
