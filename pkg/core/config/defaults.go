package config

// Default values for configuration fields.
const (
	// DefaultListenAddress is the default HTTP/WebSocket bind address.
	DefaultListenAddress = ":8080"

	// DefaultCacheTTLSeconds is the default TTL for cached on-demand reads.
	DefaultCacheTTLSeconds = 30

	// DefaultPingIntervalSeconds is the default WebSocket keepalive interval.
	DefaultPingIntervalSeconds = 20

	// DefaultMaxConcurrentSessions is the default session admission cap.
	DefaultMaxConcurrentSessions = 100

	// DefaultOutgoingQueueSize is the default per-session outgoing queue capacity.
	DefaultOutgoingQueueSize = 256

	// DefaultListTimeoutSeconds is the default server-side watch timeout.
	DefaultListTimeoutSeconds = 300

	// DefaultRetryInitialSeconds is the default initial reconnect backoff.
	DefaultRetryInitialSeconds = 1

	// DefaultRetryMaxSeconds is the default reconnect backoff cap.
	DefaultRetryMaxSeconds = 60

	// DefaultMetricsPort is the default Prometheus metrics port.
	DefaultMetricsPort = 9090

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "INFO"
)

// setDefaults applies default values to unset configuration fields.
// This modifies the config in-place and is called after parsing and before
// validation.
func setDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if cfg.Kube.Mode == "" {
		cfg.Kube.Mode = KubeModeInCluster
	}

	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheTTLSeconds
	}

	if cfg.WS.PingIntervalSeconds == 0 {
		cfg.WS.PingIntervalSeconds = DefaultPingIntervalSeconds
	}
	if cfg.WS.MaxConcurrentSessions == 0 {
		cfg.WS.MaxConcurrentSessions = DefaultMaxConcurrentSessions
	}
	if cfg.WS.OutgoingQueueSize == 0 {
		cfg.WS.OutgoingQueueSize = DefaultOutgoingQueueSize
	}

	if cfg.Watch.ListTimeoutSeconds == 0 {
		cfg.Watch.ListTimeoutSeconds = DefaultListTimeoutSeconds
	}
	if cfg.Watch.Retry.InitialSeconds == 0 {
		cfg.Watch.Retry.InitialSeconds = DefaultRetryInitialSeconds
	}
	if cfg.Watch.Retry.MaxSeconds == 0 {
		cfg.Watch.Retry.MaxSeconds = DefaultRetryMaxSeconds
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}
