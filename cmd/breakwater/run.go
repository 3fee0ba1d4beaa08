package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"harborline/breakwater/pkg/cli"
	"harborline/breakwater/pkg/config"
	"harborline/breakwater/pkg/server"
	"harborline/breakwater/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the breakwater gateway",
	Long: `Start the breakwater gateway with the specified configuration.

The gateway listens on the configured address and checks every request
against the admission rule chain (or the throttle, in delay mode) before
letting it through.

Examples:
  # Start with default config
  breakwater run

  # Start with custom config
  breakwater run --config /etc/breakwater/config.yaml

  # Override listen address
  breakwater run --listen 0.0.0.0:8080

  # Validate config without starting the gateway
  breakwater run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	// Initialize logging based on config
	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	printBanner(cfg)

	srv, err := server.New(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("starting gateway",
		"address", cfg.Server.ListenAddress,
		"mode", cfg.Admission.Mode,
	)

	fmt.Println()
	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if cfg.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until the signal context is cancelled or the listener
	// fails, then drains in-flight requests before returning.
	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Gateway stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Breakwater v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	switch cfg.Admission.Mode {
	case config.ModeDelay:
		fmt.Printf("✓ Delay mode: %d requests per %s per client\n",
			cfg.Admission.Throttle.MaxRequests, cfg.Admission.Throttle.Window)
	default:
		fmt.Printf("✓ Rule chain loaded (%d rules)\n", len(cfg.Admission.Rules))
	}

	if cfg.Audit.Enabled {
		fmt.Printf("✓ Audit trail enabled (%s)\n", cfg.Audit.Backend)
	}
}
