package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "coracle",
	Short: "Coracle - a raw-socket HTTP/1.1 server",
	Long: `Coracle is a minimal HTTP/1.1 server built directly on TCP sockets,
without a framework on the data path.

It provides:
  - Bounded-concurrency connection admission
  - Strict request validation before parsing
  - Accept retry with doubling backoff
  - Broadcast-driven graceful shutdown
  - Static pages, signup/login with argon2id credentials`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
