package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateConfigPath string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a gateway configuration file",
	Long: `Validate a gateway configuration file without starting the gateway.

The file is parsed, environment references are substituted, defaults are
applied, and the result is checked against the structural rules (modes,
ports, regular expressions, retry bounds). The command exits non-zero on the
first problem found.

Example usage:
  gateway validate --config /etc/liveview/config.yaml`,
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "",
		"Path to the configuration file (env: CONFIG_PATH)")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(validateConfigPath)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration OK: listen=%s kube_mode=%s namespace_patterns=%d\n",
		cfg.ListenAddress, cfg.Kube.Mode, len(cfg.Default.NamespacePatterns))
	return nil
}
