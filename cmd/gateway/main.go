// Package main provides the CLI entrypoint for the live-view gateway.
//
// The gateway mirrors cluster state (namespaces, deployments, stateful sets,
// pods) into an in-memory store via Kubernetes watch streams and serves it to
// dashboard clients over WebSocket, with deprecated REST snapshots kept for
// older clients.
//
// Configuration is a single YAML file located by the --config flag, the
// CONFIG_PATH environment variable, or ./config.yaml. The process runs until
// SIGTERM or SIGINT and then shuts down gracefully.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "gateway",
	Short:         "Kubernetes live-view gateway",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
