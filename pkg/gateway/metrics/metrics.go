// Package metrics defines the gateway's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgmetrics "kube-liveview/pkg/metrics"
)

// Metrics holds all gateway Prometheus metrics. Create one instance per
// process against an instance-based registry.
type Metrics struct {
	// Watcher metrics
	WatchEventsTotal   *prometheus.CounterVec
	WatchRestartsTotal *prometheus.CounterVec
	StoreRecords       *prometheus.GaugeVec

	// Session metrics
	SessionsActive        prometheus.Gauge
	SessionsTotal         prometheus.Counter
	SessionsRejectedTotal prometheus.Counter
	FramesSentTotal       prometheus.Counter
	FramesReceivedTotal   prometheus.Counter
	SubscriptionLagTotal  prometheus.Counter

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// New creates all gateway metrics and registers them with the provided
// registry. Pass prometheus.NewRegistry(), not the global default.
func New(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		WatchEventsTotal: pkgmetrics.NewCounterVec(
			registry,
			"liveview_watch_events_total",
			"Watch events processed, by kind and event type",
			[]string{"kind", "event_type"},
		),
		WatchRestartsTotal: pkgmetrics.NewCounterVec(
			registry,
			"liveview_watch_restarts_total",
			"Watch stream restarts, by kind and reason",
			[]string{"kind", "reason"},
		),
		StoreRecords: pkgmetrics.NewGaugeVec(
			registry,
			"liveview_store_records",
			"Records currently held in the state store, by kind",
			[]string{"kind"},
		),

		SessionsActive: pkgmetrics.NewGauge(
			registry,
			"liveview_sessions_active",
			"Currently open WebSocket sessions",
		),
		SessionsTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_sessions_total",
			"Total accepted WebSocket sessions",
		),
		SessionsRejectedTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_sessions_rejected_total",
			"Sessions rejected by the admission limit",
		),
		FramesSentTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_frames_sent_total",
			"Frames written to WebSocket clients",
		),
		FramesReceivedTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_frames_received_total",
			"Frames received from WebSocket clients",
		),
		SubscriptionLagTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_subscription_lag_total",
			"Store events discarded because a subscription queue was full",
		),

		CacheHitsTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_cache_hits_total",
			"TTL cache hits",
		),
		CacheMissesTotal: pkgmetrics.NewCounter(
			registry,
			"liveview_cache_misses_total",
			"TTL cache misses",
		),
	}
}
