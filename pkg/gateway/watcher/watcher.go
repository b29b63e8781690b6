// Package watcher maintains, per resource kind, a live stream of normalized
// events feeding the state store.
//
// Each watcher runs the list-then-watch discipline: a full list seeds the
// store and captures the resume cursor, then watch streams deliver deltas
// from that cursor. Transport faults back off exponentially; an expired
// cursor (410 Gone) forces a re-list that reconciles the store against the
// fresh view. The watcher never exits on its own, only on cancellation.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	watchapi "k8s.io/apimachinery/pkg/watch"

	gwmetrics "kube-liveview/pkg/gateway/metrics"
	"kube-liveview/pkg/gateway/store"
	"kube-liveview/pkg/k8s/client"
	"kube-liveview/pkg/k8s/resources"
)

// errCursorExpired signals that the resume cursor is too old and a full
// re-list is required.
var errCursorExpired = errors.New("resume cursor expired")

// queued is one event waiting for the dispatcher.
type queued struct {
	eventType store.EventType
	record    *resources.Record
}

// Config configures a watcher for one kind.
type Config struct {
	Kind   resources.Kind
	Client client.Interface
	Store  *store.Store
	Filter *NamespaceFilter
	Logger *slog.Logger

	// Metrics is optional; a nil value disables instrumentation.
	Metrics *gwmetrics.Metrics

	// ListTimeoutSeconds is the server-side watch timeout. Zero selects 300.
	ListTimeoutSeconds int

	// RetryInitial and RetryMax bound the reconnect backoff. Zero values
	// select 1s and 60s.
	RetryInitial time.Duration
	RetryMax     time.Duration

	// QueueSize is the dispatcher channel capacity. Zero selects the store's
	// default queue size.
	QueueSize int
}

// Watcher drives the watch state machine for a single kind.
type Watcher struct {
	kind        resources.Kind
	client      client.Interface
	store       *store.Store
	filter      *NamespaceFilter
	logger      *slog.Logger
	metrics     *gwmetrics.Metrics
	listTimeout int64
	backoff     *backoff
	queue       chan queued

	// cursor is the watch resume version. Owned by the Run goroutine.
	cursor string

	// known tracks every key this watcher has forwarded to the store,
	// updated at enqueue time. Re-list reconciliation diffs against it
	// rather than the store itself, which may lag behind the queue.
	// Owned by the Run goroutine.
	known map[store.Key]struct{}

	// synced flips after the first successful list; later lists are
	// reconciling re-lists and diff against the store instead of replaying
	// an INITIAL burst.
	synced bool
}

// New creates a watcher. Client and Store are required.
func New(cfg Config) (*Watcher, error) {
	if cfg.Client == nil {
		return nil, errors.New("client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Filter == nil {
		cfg.Filter = &NamespaceFilter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ListTimeoutSeconds <= 0 {
		cfg.ListTimeoutSeconds = 300
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 60 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = store.DefaultQueueSize
	}

	return &Watcher{
		kind:        cfg.Kind,
		client:      cfg.Client,
		store:       cfg.Store,
		filter:      cfg.Filter,
		logger:      cfg.Logger.With("component", "watcher", "kind", string(cfg.Kind)),
		metrics:     cfg.Metrics,
		listTimeout: int64(cfg.ListTimeoutSeconds),
		backoff:     newBackoff(cfg.RetryInitial, cfg.RetryMax),
		queue:       make(chan queued, cfg.QueueSize),
		known:       make(map[store.Key]struct{}),
	}, nil
}

// Run drives the watcher until the context is cancelled. All faults are
// recovered internally; the only return is a clean shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.dispatch(ctx)
	}()
	defer wg.Wait()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if w.cursor == "" {
			if err := w.listAndSync(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("Initial list failed", "error", err)
				w.countRestart("list_error")
				if !w.sleep(ctx, w.backoff.Next()) {
					return nil
				}
				continue
			}
			w.backoff.Reset()
		}

		received, err := w.watchCycle(ctx)
		switch {
		case ctx.Err() != nil:
			return nil

		case errors.Is(err, errCursorExpired):
			w.logger.Warn("Resume cursor expired, re-listing")
			w.countRestart("cursor_expired")
			w.cursor = ""

		case err != nil:
			w.logger.Warn("Watch stream failed", "error", err)
			w.countRestart("error")
			if !w.sleep(ctx, w.backoff.Next()) {
				return nil
			}

		default:
			// Stream ended without cause, typically the server-side timeout.
			// A cycle that delivered events counts as success for backoff.
			if received {
				w.backoff.Reset()
			}
			w.countRestart("stream_end")
			if !w.sleep(ctx, w.backoff.Next()) {
				return nil
			}
		}
	}
}

// listAndSync performs the INIT phase: full list, burst into the dispatcher,
// synthesized deletes for records that vanished while the watcher was away,
// and capture of the resume cursor.
//
// The very first list replays everything as INITIAL. A reconciling re-list
// after an expired cursor instead diffs against the keys forwarded so far:
// unknown keys arrive as ADDED, surviving keys as MODIFIED, vanished keys as
// DELETED, so clients see deltas rather than a second initial burst.
func (w *Watcher) listAndSync(ctx context.Context) error {
	result, err := w.client.List(ctx, w.kind)
	if err != nil {
		return err
	}

	existing := make(map[store.Key]struct{}, len(w.known))
	for key := range w.known {
		existing[key] = struct{}{}
	}

	seen := make(map[store.Key]struct{}, len(result.Items))
	count := 0
	for _, obj := range result.Items {
		rec, err := resources.FromObject(w.kind, obj)
		if err != nil {
			w.logger.Warn("Skipping unnormalizable object", "error", err)
			continue
		}
		if !w.filter.Allows(rec) {
			continue
		}

		key := store.Key{Namespace: rec.Namespace, Name: rec.Name}
		seen[key] = struct{}{}

		eventType := store.EventInitial
		if w.synced {
			eventType = store.EventAdded
			if _, ok := existing[key]; ok {
				eventType = store.EventModified
			}
		}
		if !w.enqueue(ctx, eventType, rec) {
			return ctx.Err()
		}
		count++
	}

	// Reconciliation: any key forwarded earlier that the fresh list no
	// longer contains was deleted while no watch was running.
	for key := range existing {
		if _, ok := seen[key]; ok {
			continue
		}
		stale := &resources.Record{Kind: w.kind, Namespace: key.Namespace, Name: key.Name}
		if !w.enqueue(ctx, store.EventDeleted, stale) {
			return ctx.Err()
		}
	}

	w.cursor = result.ResourceVersion
	w.synced = true
	w.logger.Info("Sync complete", "count", count, "resource_version", w.cursor)
	return nil
}

// watchCycle runs one watch stream from the current cursor until it ends.
// Returns whether any event arrived, and an error classifying the ending.
func (w *Watcher) watchCycle(ctx context.Context) (bool, error) {
	stream, err := w.client.Watch(ctx, w.kind, w.cursor, w.listTimeout)
	if err != nil {
		if apierrors.IsGone(err) || apierrors.IsResourceExpired(err) {
			return false, errCursorExpired
		}
		return false, err
	}
	defer stream.Stop()

	received := false
	for {
		select {
		case <-ctx.Done():
			return received, nil

		case event, ok := <-stream.ResultChan():
			if !ok {
				return received, nil
			}
			received = true

			switch event.Type {
			case watchapi.Bookmark:
				if accessor, err := meta.Accessor(event.Object); err == nil {
					w.cursor = accessor.GetResourceVersion()
				}

			case watchapi.Error:
				statusErr := apierrors.FromObject(event.Object)
				if apierrors.IsGone(statusErr) || apierrors.IsResourceExpired(statusErr) {
					return received, errCursorExpired
				}
				return received, statusErr

			case watchapi.Added, watchapi.Modified, watchapi.Deleted:
				rec, err := resources.FromObject(w.kind, event.Object)
				if err != nil {
					w.logger.Warn("Skipping unnormalizable event", "type", string(event.Type), "error", err)
					continue
				}
				// Filtered objects still advance the cursor, otherwise a
				// busy unobserved namespace would pin it forever.
				w.cursor = rec.ResourceVersion
				if !w.filter.Allows(rec) {
					continue
				}
				if !w.enqueue(ctx, eventTypeOf(event.Type), rec) {
					return received, nil
				}
			}
		}
	}
}

// dispatch is the single forwarding path from this watcher into the store.
func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-w.queue:
			w.store.Apply(item.eventType, item.record)
			if w.metrics != nil {
				w.metrics.WatchEventsTotal.WithLabelValues(string(w.kind), string(item.eventType)).Inc()
				w.metrics.StoreRecords.WithLabelValues(string(w.kind)).Set(float64(w.store.Count(w.kind)))
			}
		}
	}
}

// enqueue hands an event to the dispatcher, blocking until there is room.
// Returns false when the context is cancelled first.
func (w *Watcher) enqueue(ctx context.Context, eventType store.EventType, rec *resources.Record) bool {
	select {
	case w.queue <- queued{eventType: eventType, record: rec}:
		key := store.Key{Namespace: rec.Namespace, Name: rec.Name}
		if eventType == store.EventDeleted {
			delete(w.known, key)
		} else {
			w.known[key] = struct{}{}
		}
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep waits for the given duration. Returns false when cancelled.
func (w *Watcher) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) countRestart(reason string) {
	if w.metrics != nil {
		w.metrics.WatchRestartsTotal.WithLabelValues(string(w.kind), reason).Inc()
	}
}

// eventTypeOf maps API watch event types onto store event types.
func eventTypeOf(t watchapi.EventType) store.EventType {
	switch t {
	case watchapi.Added:
		return store.EventAdded
	case watchapi.Modified:
		return store.EventModified
	case watchapi.Deleted:
		return store.EventDeleted
	}
	return store.EventType(t)
}
