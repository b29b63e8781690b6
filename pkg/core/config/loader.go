package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable holding the config file path.
	EnvConfigPath = "CONFIG_PATH"

	// DefaultConfigPath is used when CONFIG_PATH is unset.
	DefaultConfigPath = "config.yaml"

	// envPrefix marks a scalar value for environment substitution.
	envPrefix = "ENV:"
)

// Load reads the configuration file named by CONFIG_PATH (or the default
// path), substitutes environment references, applies defaults, and validates
// the result.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile loads and validates configuration from the given file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg, err := LoadConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfig parses YAML configuration, substitutes environment references,
// and applies default values. The result still needs ValidateStructure.
//
// It performs three operations atomically:
//  1. Parses YAML into a node tree and substitutes "ENV:NAME[:default]" scalars
//  2. Decodes the tree into the Config struct
//  3. Applies default values to unset fields
func LoadConfig(configYAML string) (*Config, error) {
	cfg, err := parseConfig(configYAML)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)

	return cfg, nil
}

// parseConfig parses YAML into a Config struct with environment substitution.
// This is a pure function apart from environment lookups; it does not apply
// defaults or perform validation.
func parseConfig(configYAML string) (*Config, error) {
	if strings.TrimSpace(configYAML) == "" {
		return nil, fmt.Errorf("config YAML is empty")
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(configYAML), &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	substituteEnv(&root)

	var cfg Config
	if err := root.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// substituteEnv walks the YAML node tree and replaces string scalars of the
// form "ENV:NAME" or "ENV:NAME:default" with the environment variable value.
// An unset variable without a default yields an empty string.
func substituteEnv(node *yaml.Node) {
	if node == nil {
		return
	}

	if node.Kind == yaml.ScalarNode && strings.HasPrefix(node.Value, envPrefix) {
		nameAndDefault := strings.SplitN(node.Value[len(envPrefix):], ":", 2)

		value, ok := os.LookupEnv(nameAndDefault[0])
		if !ok && len(nameAndDefault) == 2 {
			value = nameAndDefault[1]
		}

		node.Value = value
		// Clear the tag so the resolver re-infers the substituted value's
		// type; a substituted "80" must still decode into numeric fields.
		node.Tag = ""
		node.Style = 0
		return
	}

	for _, child := range node.Content {
		substituteEnv(child)
	}
}
