// Package metricsreader serves on-demand pod resource usage reads through
// the TTL cache, so dashboard polling does not hammer the metrics API.
package metricsreader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"kube-liveview/pkg/cache"
	gwmetrics "kube-liveview/pkg/gateway/metrics"
	"kube-liveview/pkg/k8s/client"
)

// ErrNotFound reports that the metrics API has no sample for the pod. Fresh
// pods take up to a scrape interval to appear.
var ErrNotFound = errors.New("no metrics for pod")

// cachePrefix is the TTL prefix for pod metrics entries, configurable via
// cache.ttl.metrics.
const cachePrefix = "metrics"

// Reader resolves pod metrics through the cache.
type Reader struct {
	client  client.Interface
	cache   *cache.Cache
	logger  *slog.Logger
	metrics *gwmetrics.Metrics
}

// New creates a reader backed by the given API facade and cache.
func New(c client.Interface, ca *cache.Cache, logger *slog.Logger, metrics *gwmetrics.Metrics) *Reader {
	return &Reader{
		client:  c,
		cache:   ca,
		logger:  logger.With("component", "metricsreader"),
		metrics: metrics,
	}
}

// PodMetrics returns the current usage sample for one pod, cached under
// metrics:<namespace>:<pod>. Concurrent requests for the same pod share a
// single API call; errors are never cached.
func (r *Reader) PodMetrics(ctx context.Context, namespace, pod string) (*client.PodMetrics, error) {
	key := fmt.Sprintf("%s:%s:%s", cachePrefix, namespace, pod)

	computed := false
	value, err := r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
		computed = true
		return r.client.GetPodMetrics(ctx, namespace, pod)
	})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, pod)
		}
		return nil, err
	}

	if r.metrics != nil {
		if computed {
			r.metrics.CacheMissesTotal.Inc()
		} else {
			r.metrics.CacheHitsTotal.Inc()
		}
	}

	return value.(*client.PodMetrics), nil
}

// ClearCache drops every cached metrics entry.
func (r *Reader) ClearCache() int {
	n := r.cache.InvalidatePrefix(cachePrefix)
	r.logger.Info("Metrics cache cleared", "entries", n)
	return n
}
