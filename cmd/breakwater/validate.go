package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"harborline/breakwater/pkg/cli"
	"harborline/breakwater/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply environment overrides and defaults,
and check it against the same rules the run command uses.

The command prints the effective admission setup on success and exits
non-zero with the full list of problems on failure, so it can gate config
changes in CI.

Examples:
  # Validate the default config file
  breakwater validate

  # Validate a specific file
  breakwater validate --config /etc/breakwater/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Println()
	fmt.Printf("Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("Mode:           %s\n", cfg.Admission.Mode)
	fmt.Printf("Key source:     %s\n", keySourceSummary(&cfg.Admission))

	switch cfg.Admission.Mode {
	case config.ModeDelay:
		fmt.Println()
		fmt.Printf("Throttle: %d requests per %s per client\n",
			cfg.Admission.Throttle.MaxRequests, cfg.Admission.Throttle.Window)
	default:
		fmt.Println()
		fmt.Printf("Rule chain (%d rules, evaluated in order):\n", len(cfg.Admission.Rules))
		for i, rule := range cfg.Admission.Rules {
			fmt.Printf("  %d. %s\n", i+1, ruleSummary(rule))
		}
	}

	fmt.Println()
	if cfg.Audit.Enabled {
		fmt.Printf("Audit:   enabled (%s)\n", cfg.Audit.Backend)
	} else {
		fmt.Println("Audit:   disabled")
	}
	if cfg.Metrics.Enabled {
		fmt.Printf("Metrics: %s\n", cfg.Metrics.Path)
	} else {
		fmt.Println("Metrics: disabled")
	}

	return nil
}

func keySourceSummary(cfg *config.AdmissionConfig) string {
	if cfg.KeySource == config.KeySourceHeader {
		return fmt.Sprintf("header %q (fallback %q)", cfg.KeyHeader, cfg.FallbackKey)
	}
	return fmt.Sprintf("remote address (fallback %q)", cfg.FallbackKey)
}

func ruleSummary(rule config.RuleConfig) string {
	switch rule.Strategy {
	case "token_bucket":
		return fmt.Sprintf("%s: token_bucket, capacity %d, refill %.2f/s",
			rule.Name, rule.Capacity, rule.RefillRate)
	case "leaky_bucket":
		return fmt.Sprintf("%s: leaky_bucket, capacity %d, leak every %s",
			rule.Name, rule.Capacity, rule.LeakInterval)
	default:
		return fmt.Sprintf("%s: %s, %d requests per %s",
			rule.Name, rule.Strategy, rule.MaxRequests, rule.Window)
	}
}
