package config

import (
	"fmt"
	"regexp"
)

// ValidateStructure performs basic structural validation on the configuration.
// Validates required fields, value ranges, and that namespace patterns compile
// as regular expressions.
func ValidateStructure(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}

	if err := validateKubeConfig(&cfg.Kube); err != nil {
		return fmt.Errorf("kube: %w", err)
	}

	if err := validateDefaultConfig(&cfg.Default); err != nil {
		return fmt.Errorf("default: %w", err)
	}

	if err := validateCacheConfig(&cfg.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if err := validateWSConfig(&cfg.WS); err != nil {
		return fmt.Errorf("ws: %w", err)
	}

	if err := validateWatchConfig(&cfg.Watch); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if err := validateMetricsConfig(&cfg.Metrics); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

// validateKubeConfig validates the Kubernetes connection configuration.
func validateKubeConfig(kc *KubeConfig) error {
	switch kc.Mode {
	case KubeModeInCluster, KubeModeMock:
		// No additional fields required.
	case KubeModeKubeconfig:
		if kc.KubeconfigPath == "" {
			return fmt.Errorf("kubeconfig_path cannot be empty when mode is %q", KubeModeKubeconfig)
		}
	default:
		return fmt.Errorf("mode must be %q, %q, or %q, got %q",
			KubeModeInCluster, KubeModeKubeconfig, KubeModeMock, kc.Mode)
	}

	return nil
}

// validateDefaultConfig validates the namespace selection configuration.
func validateDefaultConfig(dc *DefaultConfig) error {
	for i, pattern := range dc.NamespacePatterns {
		if pattern == "" {
			return fmt.Errorf("namespace_patterns[%d] cannot be empty", i)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("namespace_patterns[%d]: invalid regular expression %q: %w", i, pattern, err)
		}
	}

	return nil
}

// validateCacheConfig validates the cache configuration.
func validateCacheConfig(cc *CacheConfig) error {
	if cc.DefaultTTL < 1 {
		return fmt.Errorf("default_ttl must be positive, got %d", cc.DefaultTTL)
	}

	for key, ttl := range cc.TTL {
		if key == "" {
			return fmt.Errorf("ttl key cannot be empty")
		}
		if ttl < 1 {
			return fmt.Errorf("ttl for %q must be positive, got %d", key, ttl)
		}
	}

	return nil
}

// validateWSConfig validates the WebSocket session configuration.
func validateWSConfig(wc *WSConfig) error {
	if wc.PingIntervalSeconds < 1 {
		return fmt.Errorf("ping_interval_seconds must be positive, got %d", wc.PingIntervalSeconds)
	}

	if wc.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be positive, got %d", wc.MaxConcurrentSessions)
	}

	if wc.OutgoingQueueSize < 1 {
		return fmt.Errorf("outgoing_queue_size must be positive, got %d", wc.OutgoingQueueSize)
	}

	return nil
}

// validateWatchConfig validates the watcher configuration.
func validateWatchConfig(wc *WatchConfig) error {
	if wc.ListTimeoutSeconds < 1 {
		return fmt.Errorf("list_timeout_seconds must be positive, got %d", wc.ListTimeoutSeconds)
	}

	if wc.Retry.InitialSeconds < 1 {
		return fmt.Errorf("retry: initial_seconds must be positive, got %d", wc.Retry.InitialSeconds)
	}

	if wc.Retry.MaxSeconds < wc.Retry.InitialSeconds {
		return fmt.Errorf("retry: max_seconds (%d) cannot be less than initial_seconds (%d)",
			wc.Retry.MaxSeconds, wc.Retry.InitialSeconds)
	}

	return nil
}

// validateMetricsConfig validates the metrics server configuration.
func validateMetricsConfig(mc *MetricsConfig) error {
	if mc.Port < 1 || mc.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", mc.Port)
	}

	return nil
}

// validateLoggingConfig validates the logging configuration.
func validateLoggingConfig(lc *LoggingConfig) error {
	switch lc.Level {
	case "ERROR", "WARNING", "WARN", "INFO", "DEBUG":
		return nil
	default:
		return fmt.Errorf("level must be one of ERROR, WARNING, INFO, DEBUG, got %q", lc.Level)
	}
}
