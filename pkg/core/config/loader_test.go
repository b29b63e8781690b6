package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Success(t *testing.T) {
	yamlConfig := `
listen_address: ":9000"

kube:
  mode: kubeconfig
  kubeconfig_path: /home/dev/.kube/config

default:
  namespace_patterns:
    - "^app-.*"
    - "^team-.*"

cache:
  default_ttl: 45
  ttl:
    metrics: 15

ws:
  ping_interval_seconds: 10
  max_concurrent_sessions: 50

watch:
  list_timeout_seconds: 120
  retry:
    initial_seconds: 2
    max_seconds: 30

logging:
  level: DEBUG
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9000", cfg.ListenAddress)
	assert.Equal(t, KubeModeKubeconfig, cfg.Kube.Mode)
	assert.Equal(t, "/home/dev/.kube/config", cfg.Kube.KubeconfigPath)
	assert.Len(t, cfg.Default.NamespacePatterns, 2)
	assert.Equal(t, 45, cfg.Cache.DefaultTTL)
	assert.Equal(t, 15, cfg.Cache.TTL["metrics"])
	assert.Equal(t, 10, cfg.WS.PingIntervalSeconds)
	assert.Equal(t, 50, cfg.WS.MaxConcurrentSessions)
	assert.Equal(t, 120, cfg.Watch.ListTimeoutSeconds)
	assert.Equal(t, 2, cfg.Watch.Retry.InitialSeconds)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestParseConfig_EmptyString(t *testing.T) {
	cfg, err := parseConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config YAML is empty")
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	yamlConfig := `
kube:
  mode: in_cluster
  invalid_indentation
`

	cfg, err := parseConfig(yamlConfig)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestParseConfig_PartialConfig(t *testing.T) {
	// Parsing works with minimal config; defaults and validation are
	// separate steps.
	yamlConfig := `
kube:
  mode: mock
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, KubeModeMock, cfg.Kube.Mode)
	assert.Empty(t, cfg.ListenAddress) // Will be set by defaults
	assert.Equal(t, 0, cfg.Cache.DefaultTTL)
	assert.Equal(t, 0, cfg.WS.PingIntervalSeconds)
}

func TestParseConfig_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_KUBECONFIG", "/tmp/kubeconfig")

	yamlConfig := `
kube:
  mode: kubeconfig
  kubeconfig_path: ENV:TEST_KUBECONFIG
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kubeconfig", cfg.Kube.KubeconfigPath)
}

func TestParseConfig_EnvSubstitutionDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		want     string
	}{
		{
			name:   "unset variable falls back to default",
			setEnv: false,
			want:   "/etc/gateway/kubeconfig",
		},
		{
			name:     "set variable wins over default",
			envValue: "/custom/kubeconfig",
			setEnv:   true,
			want:     "/custom/kubeconfig",
		},
		{
			name:     "empty variable counts as set",
			envValue: "",
			setEnv:   true,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_KUBECONFIG_DEF", tt.envValue)
			} else {
				os.Unsetenv("TEST_KUBECONFIG_DEF")
			}

			yamlConfig := `
kube:
  mode: kubeconfig
  kubeconfig_path: ENV:TEST_KUBECONFIG_DEF:/etc/gateway/kubeconfig
`

			cfg, err := parseConfig(yamlConfig)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Kube.KubeconfigPath)
		})
	}
}

func TestParseConfig_EnvSubstitutionUnsetNoDefault(t *testing.T) {
	os.Unsetenv("TEST_MISSING_VAR")

	yamlConfig := `
kube:
  mode: kubeconfig
  kubeconfig_path: ENV:TEST_MISSING_VAR
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	assert.Empty(t, cfg.Kube.KubeconfigPath)
}

func TestParseConfig_EnvSubstitutionNumeric(t *testing.T) {
	// A substituted value must decode into non-string fields.
	t.Setenv("TEST_METRICS_PORT", "9191")

	yamlConfig := `
metrics:
  port: ENV:TEST_METRICS_PORT
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestParseConfig_EnvSubstitutionNested(t *testing.T) {
	// Substitution applies to scalars anywhere in the tree, including
	// sequence items and map values.
	t.Setenv("TEST_NS_PATTERN", "^prod-.*")

	yamlConfig := `
default:
  namespace_patterns:
    - ENV:TEST_NS_PATTERN
    - "^staging-.*"
`

	cfg, err := parseConfig(yamlConfig)
	require.NoError(t, err)
	require.Len(t, cfg.Default.NamespacePatterns, 2)
	assert.Equal(t, "^prod-.*", cfg.Default.NamespacePatterns[0])
	assert.Equal(t, "^staging-.*", cfg.Default.NamespacePatterns[1])
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	yamlConfig := `
kube:
  mode: mock
`

	cfg, err := LoadConfig(yamlConfig)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	assert.Equal(t, DefaultCacheTTLSeconds, cfg.Cache.DefaultTTL)
	assert.Equal(t, DefaultPingIntervalSeconds, cfg.WS.PingIntervalSeconds)
	assert.Equal(t, DefaultMaxConcurrentSessions, cfg.WS.MaxConcurrentSessions)
	assert.Equal(t, DefaultOutgoingQueueSize, cfg.WS.OutgoingQueueSize)
	assert.Equal(t, DefaultListTimeoutSeconds, cfg.Watch.ListTimeoutSeconds)
	assert.Equal(t, DefaultRetryInitialSeconds, cfg.Watch.Retry.InitialSeconds)
	assert.Equal(t, DefaultRetryMaxSeconds, cfg.Watch.Retry.MaxSeconds)
	assert.Equal(t, DefaultMetricsPort, cfg.Metrics.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadFile_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlConfig := `
listen_address: ":8081"
kube:
  mode: mock
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.ListenAddress)
	assert.Equal(t, KubeModeMock, cfg.Kube.Mode)
}

func TestLoadFile_MissingFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")

	yamlConfig := `
kube:
  mode: mock
`
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, KubeModeMock, cfg.Kube.Mode)
}
