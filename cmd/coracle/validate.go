package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coracle-hq/coracle/pkg/cli"
	"coracle-hq/coracle/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and report the effective configuration without starting the server.

Examples:
  # Validate the default configuration
  coracle validate

  # Validate a specific file
  coracle validate --config /etc/coracle/config.yaml

  # Print the effective configuration as JSON
  coracle validate --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// effectiveConfig is the validate command's report shape.
type effectiveConfig struct {
	ListenAddress   string `json:"listen_address"`
	ReadTimeout     string `json:"read_timeout"`
	ShutdownTimeout string `json:"shutdown_timeout"`
	MaxConnections  int    `json:"max_connections"`
	UsersFile       string `json:"users_file"`
	StaticDir       string `json:"static_dir"`
	LogLevel        string `json:"log_level"`
	MetricsEnabled  bool   `json:"metrics_enabled"`
	TracingEnabled  bool   `json:"tracing_enabled"`
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if validateFlags.format == string(cli.FormatJSON) {
		report := effectiveConfig{
			ListenAddress:   cfg.Server.ListenAddress,
			ReadTimeout:     cfg.Server.ReadTimeout.String(),
			ShutdownTimeout: cfg.Server.ShutdownTimeout.String(),
			MaxConnections:  cfg.Limits.MaxConnections,
			UsersFile:       cfg.Auth.UsersFile,
			StaticDir:       cfg.Static.Dir,
			LogLevel:        cfg.Telemetry.Logging.Level,
			MetricsEnabled:  cfg.Telemetry.Metrics.Enabled,
			TracingEnabled:  cfg.Telemetry.Tracing.Enabled,
		}
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, report)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Listen address:  %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Read timeout:    %s\n", cfg.Server.ReadTimeout)
	fmt.Printf("  Max connections: %d\n", cfg.Limits.MaxConnections)
	fmt.Printf("  Users file:      %s\n", cfg.Auth.UsersFile)
	fmt.Printf("  Static dir:      %s\n", cfg.Static.Dir)
	return nil
}
