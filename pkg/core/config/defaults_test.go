package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	assert.Equal(t, KubeModeInCluster, cfg.Kube.Mode)
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

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		ListenAddress: ":9000",
		Kube: KubeConfig{
			Mode: KubeModeMock,
		},
		Cache: CacheConfig{
			DefaultTTL: 120,
		},
		WS: WSConfig{
			PingIntervalSeconds:   5,
			MaxConcurrentSessions: 10,
			OutgoingQueueSize:     32,
		},
		Watch: WatchConfig{
			ListTimeoutSeconds: 60,
			Retry: RetryConfig{
				InitialSeconds: 5,
				MaxSeconds:     120,
			},
		},
		Metrics: MetricsConfig{
			Port: 9999,
		},
		Logging: LoggingConfig{
			Level: "ERROR",
		},
	}

	setDefaults(cfg)

	assert.Equal(t, ":9000", cfg.ListenAddress)
	assert.Equal(t, KubeModeMock, cfg.Kube.Mode)
	assert.Equal(t, 120, cfg.Cache.DefaultTTL)
	assert.Equal(t, 5, cfg.WS.PingIntervalSeconds)
	assert.Equal(t, 10, cfg.WS.MaxConcurrentSessions)
	assert.Equal(t, 32, cfg.WS.OutgoingQueueSize)
	assert.Equal(t, 60, cfg.Watch.ListTimeoutSeconds)
	assert.Equal(t, 5, cfg.Watch.Retry.InitialSeconds)
	assert.Equal(t, 120, cfg.Watch.Retry.MaxSeconds)
	assert.Equal(t, 9999, cfg.Metrics.Port)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestSetDefaults_DoesNotTouchNamespacePatterns(t *testing.T) {
	// An empty pattern list means "all namespaces" and must stay empty.
	cfg := &Config{}
	setDefaults(cfg)
	assert.Empty(t, cfg.Default.NamespacePatterns)
}
