// Package store holds the authoritative normalized mirror of the watched
// cluster state and fans change events out to subscribers.
//
// The store does no I/O. Writes come from exactly one logical path per kind
// (the watcher's dispatcher); reads and subscriptions are many. Subscribers
// receive events on bounded queues and can never block the writer.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"kube-liveview/pkg/k8s/resources"
)

// EventType classifies a store event.
type EventType string

const (
	// EventInitial marks records replayed from a snapshot or the first list.
	EventInitial EventType = "INITIAL"

	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
)

// Event is one change notification. The record is a copy detached from store
// state; subscribers treat it as read-only.
type Event struct {
	Type   EventType
	Record *resources.Record
}

// Key identifies an object within its kind. Cluster-scoped objects have an
// empty namespace.
type Key struct {
	Namespace string
	Name      string
}

// DefaultQueueSize is the per-subscription event queue capacity.
const DefaultQueueSize = 256

// Store is the keyed state mirror with subscriber fan-out.
// Thread-safe for concurrent access.
type Store struct {
	mu        sync.RWMutex
	records   map[resources.Kind]map[Key]*resources.Record
	subs      map[resources.Kind]map[uint64]*Subscription
	nextSubID uint64
	queueSize int
	logger    *slog.Logger
}

// New creates an empty store. queueSize <= 0 selects DefaultQueueSize.
func New(logger *slog.Logger, queueSize int) *Store {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		records:   make(map[resources.Kind]map[Key]*resources.Record),
		subs:      make(map[resources.Kind]map[uint64]*Subscription),
		queueSize: queueSize,
		logger:    logger.With("component", "store"),
	}
	for _, kind := range resources.Kinds() {
		s.records[kind] = make(map[Key]*resources.Record)
		s.subs[kind] = make(map[uint64]*Subscription)
	}
	return s
}

// Apply ingests one event: the keyed map is updated and all subscribers for
// the record's kind are notified. The map mutation and the capture of the
// subscriber set happen in one critical section; queue delivery happens
// outside it.
//
// A MODIFIED event always replaces the stored record, even when the new form
// is identical, because downstream clients distinguish event types.
func (s *Store) Apply(eventType EventType, rec *resources.Record) {
	if rec == nil {
		return
	}
	key := Key{Namespace: rec.Namespace, Name: rec.Name}

	s.mu.Lock()
	byKey, ok := s.records[rec.Kind]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("event for unknown kind dropped", "kind", rec.Kind)
		return
	}

	switch eventType {
	case EventDeleted:
		delete(byKey, key)
	default:
		byKey[key] = rec.DeepCopy()
	}

	targets := make([]*Subscription, 0, len(s.subs[rec.Kind]))
	for _, sub := range s.subs[rec.Kind] {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	// One detached copy shared by all subscribers; events are read-only by
	// contract.
	event := Event{Type: eventType, Record: rec.DeepCopy()}
	for _, sub := range targets {
		sub.deliver(event)
	}
}

// Snapshot returns deep copies of the current records for a kind, optionally
// filtered by namespace (empty string means all). Records are ordered by
// namespace then name so replays are deterministic.
func (s *Store) Snapshot(kind resources.Kind, namespace string) []*resources.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey := s.records[kind]
	out := make([]*resources.Record, 0, len(byKey))
	for key, rec := range byKey {
		if namespace != "" && key.Namespace != namespace {
			continue
		}
		out = append(out, rec.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Get returns a deep copy of one record.
func (s *Store) Get(kind resources.Kind, namespace, name string) (*resources.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[kind][Key{Namespace: namespace, Name: name}]
	if !ok {
		return nil, false
	}
	return rec.DeepCopy(), true
}

// Count returns the number of records held for a kind.
func (s *Store) Count(kind resources.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[kind])
}

// Subscribe registers for all subsequent events of a kind. The subscription
// stays registered until Close is called.
func (s *Store) Subscribe(kind resources.Kind) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	sub := &Subscription{
		id:    s.nextSubID,
		kind:  kind,
		ch:    make(chan Event, s.queueSize),
		store: s,
	}
	s.subs[kind][sub.id] = sub
	return sub
}

// unsubscribe removes a subscription from the registry.
func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[sub.kind], sub.id)
}

// Subscription is one registered event consumer with its bounded queue.
type Subscription struct {
	id     uint64
	kind   resources.Kind
	ch     chan Event
	lagged atomic.Uint64
	closed atomic.Bool
	store  *Store
}

// Events returns the receive side of the subscription queue. The channel is
// never closed; consumers stop by calling Close and abandoning the channel.
func (sub *Subscription) Events() <-chan Event {
	return sub.ch
}

// Lagged returns how many events were discarded because the queue was full.
// The session layer uses this to detect that its view has gaps.
func (sub *Subscription) Lagged() uint64 {
	return sub.lagged.Load()
}

// Kind returns the subscribed kind.
func (sub *Subscription) Kind() resources.Kind {
	return sub.kind
}

// Close unregisters the subscription. Events already queued remain readable.
func (sub *Subscription) Close() {
	if sub.closed.CompareAndSwap(false, true) {
		sub.store.unsubscribe(sub)
	}
}

// deliver enqueues an event without ever blocking. When the queue is full the
// oldest queued event is discarded to make room, and the lag counter records
// the loss. The subscription is not closed on lag; recovering is the
// consumer's policy.
func (sub *Subscription) deliver(event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}

	select {
	case <-sub.ch:
		sub.lagged.Add(1)
	default:
	}

	select {
	case sub.ch <- event:
	default:
		sub.lagged.Add(1)
	}
}
