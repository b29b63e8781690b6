// Package config provides data models for the gateway configuration.
//
// The configuration is a single YAML document named by the CONFIG_PATH
// environment variable. String scalars of the form "ENV:NAME[:default]" are
// substituted from the process environment at load time.
package config

// KubeMode selects how the Kubernetes API facade is built.
type KubeMode string

const (
	// KubeModeInCluster uses the service account mounted into the pod.
	KubeModeInCluster KubeMode = "in_cluster"

	// KubeModeKubeconfig uses an explicit kubeconfig file (out-of-cluster development).
	KubeModeKubeconfig KubeMode = "kubeconfig"

	// KubeModeMock uses in-memory fixtures instead of a real API server.
	KubeModeMock KubeMode = "mock"
)

// Config is the root configuration structure for the gateway.
type Config struct {
	// ListenAddress is where the HTTP/WebSocket server binds.
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// Kube configures how the Kubernetes API facade is built.
	Kube KubeConfig `yaml:"kube"`

	// Default holds cluster-wide view settings.
	Default DefaultConfig `yaml:"default"`

	// Cache configures TTLs for on-demand reads.
	Cache CacheConfig `yaml:"cache"`

	// WS configures the WebSocket session layer.
	WS WSConfig `yaml:"ws"`

	// Watch configures the per-kind watchers.
	Watch WatchConfig `yaml:"watch"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// KubeConfig selects the Kubernetes client mode.
type KubeConfig struct {
	// Mode is one of "in_cluster", "kubeconfig", or "mock".
	// Default: "in_cluster"
	Mode KubeMode `yaml:"mode"`

	// KubeconfigPath is the kubeconfig file location, used only in
	// "kubeconfig" mode.
	KubeconfigPath string `yaml:"kubeconfig_path"`
}

// DefaultConfig holds view-scoping settings shared by all components.
type DefaultConfig struct {
	// NamespacePatterns is a list of regular expressions. A namespace is
	// observable if any pattern matches its name. An empty list allows all
	// namespaces. Applies before objects enter the store, so a non-matching
	// object is invisible to every subscriber and snapshot.
	NamespacePatterns []string `yaml:"namespace_patterns"`
}

// CacheConfig configures the TTL cache for on-demand reads.
type CacheConfig struct {
	// DefaultTTL is the cache entry lifetime in seconds for keys without an
	// override. Default: 30
	DefaultTTL int `yaml:"default_ttl"`

	// TTL maps cache key prefixes to per-key TTL overrides in seconds.
	//
	// Example:
	//   ttl:
	//     metrics: 15
	TTL map[string]int `yaml:"ttl"`
}

// WSConfig configures the WebSocket session layer.
type WSConfig struct {
	// PingIntervalSeconds is the server keepalive interval.
	// A session is closed if no frame arrives within 3x this interval.
	// Default: 20
	PingIntervalSeconds int `yaml:"ping_interval_seconds"`

	// MaxConcurrentSessions caps concurrently open sessions. Excess
	// connections are rejected with close code 1013. Default: 100
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`

	// OutgoingQueueSize is the per-session outgoing frame queue capacity.
	// A session that overflows its queue is closed as a slow consumer.
	// Default: 256
	OutgoingQueueSize int `yaml:"outgoing_queue_size"`
}

// WatchConfig configures the per-kind watchers.
type WatchConfig struct {
	// ListTimeoutSeconds is the server-side timeout for watch requests, so a
	// silently dropped stream self-terminates and the watcher reconnects.
	// Default: 300
	ListTimeoutSeconds int `yaml:"list_timeout_seconds"`

	// Retry configures reconnect backoff.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig configures exponential backoff between watch reconnects.
type RetryConfig struct {
	// InitialSeconds is the first backoff delay. Default: 1
	InitialSeconds int `yaml:"initial_seconds"`

	// MaxSeconds caps the backoff delay. Default: 60
	MaxSeconds int `yaml:"max_seconds"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Port is the metrics listener port. Default: 9090
	Port int `yaml:"port"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of ERROR, WARNING, INFO, DEBUG. The LOG_LEVEL environment
	// variable takes precedence. Default: INFO
	Level string `yaml:"level"`
}
