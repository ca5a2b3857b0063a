// Package cli implements the askeed command tree: thin wrappers that wire a
// Core and drive it locally, proving out the kernel end-to-end without
// opening any network listener (SPEC_FULL §F, grounded on the teacher's
// internal/cli cobra root + internal/cli.initConfig pattern).
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	debug      bool
	verbose    bool
)

// rootCmd is the base command when askeed is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "askeed",
	Short: "askee core trust & accounting kernel",
	Long: `askeed drives the askee core trust and accounting kernel: the
credit ledger, consent token manager, discovery/invitation store, and
workload protocol gate described by the kernel specification. It is not a
network service — every subcommand operates on a locally-constructed
in-process Core.`,
	Version: "0.1.0-dev",
}

// Execute runs the root command; called once by cmd/askeed's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "policy configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func initConfig() {
	if debug || verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	// Policy loading happens per-command via policy.Load(configFile) rather
	// than once here, so each command controls its own failure handling.
}
