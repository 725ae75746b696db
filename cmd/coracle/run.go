package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"coracle-hq/coracle/pkg/api"
	"coracle-hq/coracle/pkg/auth"
	"coracle-hq/coracle/pkg/cli"
	"coracle-hq/coracle/pkg/config"
	"coracle-hq/coracle/pkg/server"
	"coracle-hq/coracle/pkg/telemetry/logging"
	"coracle-hq/coracle/pkg/telemetry/metrics"
	"coracle-hq/coracle/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Coracle server",
	Long: `Start the Coracle server with the specified configuration.

The server listens on the configured address and serves HTTP/1.1 requests
over raw TCP, with bounded concurrency and graceful shutdown on SIGINT or
SIGTERM.

Examples:
  # Start with default config
  coracle run

  # Start with custom config
  coracle run --config /etc/coracle/config.yaml

  # Override listen address
  coracle run --listen "[::1]:7878"

  # Validate config without starting server
  coracle run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Tracing
	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer tracer.Shutdown(context.Background())

	// Metrics sidecar
	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New(nil)
		admin := metrics.NewAdminServer(cfg.Telemetry.Metrics.ListenAddress, logger)
		admin.Start()
		defer admin.Shutdown(context.Background())
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Telemetry.Metrics.ListenAddress)
	}

	// Credential store
	store, err := auth.NewFileStore(cfg.Auth.UsersFile, cfg.Auth.SessionTTL, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open user store: %w", err))
	}
	if err := store.StartCleanup(cfg.Auth.CleanupSchedule); err != nil {
		return cli.NewConfigError("auth.cleanup_schedule", err.Error())
	}
	defer store.StopCleanup()
	fmt.Printf("✓ User store: %s\n", cfg.Auth.UsersFile)

	// Static file cache
	cache, err := api.NewStaticCache(cfg.Static.Dir, cfg.Static.Watch, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open static cache: %w", err))
	}
	defer cache.Close()

	handler := api.NewHandler(cache, store, logger)
	srv := server.NewServer(cfg, handler, m, tracer, logger)

	fmt.Printf("✓ Listening on %s (max %d concurrent connections)\n",
		cfg.Server.ListenAddress, cfg.Limits.MaxConnections)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal or a fatal accept error. The context is
	// cancelled on SIGINT/SIGTERM as a second shutdown path.
	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Coracle v%s\n", Version)
	if cfgFile != "" {
		fmt.Printf("Loading configuration from: %s\n", cfgFile)
	} else {
		fmt.Println("Using default configuration")
	}
	fmt.Println("✓ Configuration loaded")

	slog.Debug("static directory", "dir", cfg.Static.Dir, "watch", cfg.Static.Watch)
	if cfg.Telemetry.Tracing.Enabled {
		slog.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint)
	}
}
