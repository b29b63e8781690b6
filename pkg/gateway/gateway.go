// Package gateway assembles the live-view components and runs them as one
// unit: the per-kind watchers, the state store, the WebSocket session layer,
// the REST surface, and the metrics endpoint.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"kube-liveview/pkg/cache"
	"kube-liveview/pkg/core/config"
	"kube-liveview/pkg/gateway/httpapi"
	gwmetrics "kube-liveview/pkg/gateway/metrics"
	"kube-liveview/pkg/gateway/metricsreader"
	"kube-liveview/pkg/gateway/session"
	"kube-liveview/pkg/gateway/store"
	"kube-liveview/pkg/gateway/watcher"
	"kube-liveview/pkg/k8s/client"
	"kube-liveview/pkg/k8s/resources"
	pkgmetrics "kube-liveview/pkg/metrics"
)

// Gateway owns every long-running component of the process.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	store         *store.Store
	sessions      *session.Manager
	watchers      []*watcher.Watcher
	httpServer    *httpapi.Server
	metricsServer *pkgmetrics.Server
}

// New wires the component graph from a validated configuration.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Gateway, error) {
	apiClient, err := client.New(cfg.Kube)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := gwmetrics.New(registry)

	st := store.New(logger, cfg.WS.OutgoingQueueSize)

	filter, err := watcher.NewNamespaceFilter(cfg.Default.NamespacePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid namespace patterns: %w", err)
	}

	watchers := make([]*watcher.Watcher, 0, len(resources.Kinds()))
	for _, kind := range resources.Kinds() {
		w, err := watcher.New(watcher.Config{
			Kind:               kind,
			Client:             apiClient,
			Store:              st,
			Filter:             filter,
			Logger:             logger,
			Metrics:            metrics,
			ListTimeoutSeconds: cfg.Watch.ListTimeoutSeconds,
			RetryInitial:       time.Duration(cfg.Watch.Retry.InitialSeconds) * time.Second,
			RetryMax:           time.Duration(cfg.Watch.Retry.MaxSeconds) * time.Second,
			QueueSize:          cfg.WS.OutgoingQueueSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s watcher: %w", kind, err)
		}
		watchers = append(watchers, w)
	}

	ttlCache := cache.New(cache.Config{
		DefaultTTL: time.Duration(cfg.Cache.DefaultTTL) * time.Second,
		PrefixTTL:  prefixTTLs(cfg.Cache.TTL),
	})
	reader := metricsreader.New(apiClient, ttlCache, logger, metrics)

	sessions := session.NewManager(st, session.Config{
		PingInterval: time.Duration(cfg.WS.PingIntervalSeconds) * time.Second,
		QueueSize:    cfg.WS.OutgoingQueueSize,
		MaxSessions:  cfg.WS.MaxConcurrentSessions,
	}, logger, metrics)

	httpServer := httpapi.NewServer(cfg.ListenAddress, httpapi.Config{
		Store:   st,
		Reader:  reader,
		WS:      sessions,
		Logger:  logger,
		Version: version,
	})

	metricsServer := pkgmetrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), registry)

	return &Gateway{
		cfg:           cfg,
		logger:        logger.With("component", "gateway"),
		store:         st,
		sessions:      sessions,
		watchers:      watchers,
		httpServer:    httpServer,
		metricsServer: metricsServer,
	}, nil
}

// Run starts every component and blocks until the context is cancelled or a
// component fails. Components return nil on graceful shutdown, so the first
// non-nil error is a real fault.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Info("Gateway starting",
		"listen_address", g.cfg.ListenAddress,
		"kube_mode", g.cfg.Kube.Mode,
		"kinds", len(g.watchers))

	eg, egCtx := errgroup.WithContext(ctx)

	for _, w := range g.watchers {
		w := w
		eg.Go(func() error {
			return w.Run(egCtx)
		})
	}

	eg.Go(func() error {
		return g.sessions.Run(egCtx)
	})

	eg.Go(func() error {
		return g.httpServer.Start(egCtx)
	})

	eg.Go(func() error {
		return g.metricsServer.Start(egCtx)
	})

	err := eg.Wait()
	if err != nil {
		g.logger.Error("Gateway stopped on error", "error", err)
		return err
	}
	g.logger.Info("Gateway stopped")
	return nil
}

// Store exposes the state store for diagnostics.
func (g *Gateway) Store() *store.Store {
	return g.store
}

func prefixTTLs(seconds map[string]int) map[string]time.Duration {
	if len(seconds) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(seconds))
	for prefix, s := range seconds {
		out[prefix] = time.Duration(s) * time.Second
	}
	return out
}
