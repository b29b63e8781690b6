package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/spf13/cobra"

	"kube-liveview/pkg/core/config"
	"kube-liveview/pkg/core/logging"
	"kube-liveview/pkg/gateway"
)

var runConfigPath string

// runCmd represents the run command (gateway main loop).
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live-view gateway",
	Long: `Run the live-view gateway.

The gateway watches cluster resources, maintains a normalized in-memory
mirror, and streams changes to WebSocket clients.

Configuration is loaded from:
1. The --config flag (highest priority)
2. The CONFIG_PATH environment variable
3. ./config.yaml (lowest priority)

Example usage:
  # Run with the default configuration file
  gateway run

  # Run with an explicit configuration file
  gateway run --config /etc/liveview/config.yaml`,
	RunE: runGateway,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "",
		"Path to the configuration file (env: CONFIG_PATH)")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	// LOG_LEVEL env takes precedence over the config file.
	level := cfg.Logging.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	logger := logging.NewLogger(level)
	slog.SetDefault(logger)

	// Log detected resource limits for observability
	gomaxprocs := runtime.GOMAXPROCS(0)
	var gomemlimit string
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		gomemlimit = fmt.Sprintf("%d bytes (%.2f MiB)", limit, float64(limit)/(1024*1024))
	} else {
		gomemlimit = "unlimited"
	}

	logger.Info("Live-view gateway starting",
		"version", version,
		"listen_address", cfg.ListenAddress,
		"kube_mode", cfg.Kube.Mode,
		"metrics_port", cfg.Metrics.Port,
		"log_level", level,
		"gomaxprocs", gomaxprocs,
		"gomemlimit", gomemlimit)

	gw, err := gateway.New(cfg, logger, version)
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

// loadConfig resolves the config path, loads, and validates.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := config.ValidateStructure(cfg); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}
