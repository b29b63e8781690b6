package session

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	gwmetrics "kube-liveview/pkg/gateway/metrics"
	"kube-liveview/pkg/gateway/store"
	"kube-liveview/pkg/k8s/resources"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// maxFrameSize bounds inbound frames. Client frames are tiny control
	// messages; anything larger is a protocol violation.
	maxFrameSize = 4096
)

// subKey identifies one subscription within a session.
type subKey struct {
	kind      resources.Kind
	namespace string
}

// subscription pairs a store subscription with its forwarder lifecycle.
type subscription struct {
	key    subKey
	live   *store.Subscription
	cancel chan struct{}
}

// Session owns one WebSocket connection: its subscription set, its outgoing
// queue, and its keepalive state.
type Session struct {
	id           string
	conn         *websocket.Conn
	store        *store.Store
	logger       *slog.Logger
	metrics      *gwmetrics.Metrics
	pingInterval time.Duration

	out  chan interface{}
	done chan struct{}

	mu   sync.Mutex
	subs map[subKey]*subscription

	lastActivity atomic.Int64

	closeOnce sync.Once
	onClose   func(*Session)
}

func newSession(id string, conn *websocket.Conn, st *store.Store, logger *slog.Logger, metrics *gwmetrics.Metrics, pingInterval time.Duration, queueSize int, onClose func(*Session)) *Session {
	s := &Session{
		id:           id,
		conn:         conn,
		store:        st,
		logger:       logger.With("component", "session", "session_id", id),
		metrics:      metrics,
		pingInterval: pingInterval,
		out:          make(chan interface{}, queueSize),
		done:         make(chan struct{}),
		subs:         make(map[subKey]*subscription),
		onClose:      onClose,
	}
	s.lastActivity.Store(time.Now().UnixNano())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// run serves the connection until it closes. The caller's goroutine becomes
// the read loop; the write loop runs on its own goroutine.
func (s *Session) run() {
	s.send(connectionFrame{Type: frameConnection, Status: "connected"})

	go s.writeLoop()
	s.readLoop()

	s.close(websocket.CloseNormalClosure, "")
}

// readLoop decodes inbound frames and dispatches them. Protocol violations
// get an error frame and the session stays open; only transport errors end
// the loop.
func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Connection read failed", "error", err)
			}
			return
		}
		s.lastActivity.Store(time.Now().UnixNano())
		if s.metrics != nil {
			s.metrics.FramesReceivedTotal.Inc()
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.send(errorFrame("invalid JSON"))
			continue
		}

		switch frame.Type {
		case frameSubscribe:
			s.handleSubscribe(frame.ResourceType, frame.Namespace)
		case frameUnsubscribe:
			s.handleUnsubscribe(frame.ResourceType, frame.Namespace)
		case framePing:
			s.send(keepaliveFrame{Type: framePong, Timestamp: frame.Timestamp})
		case framePong:
			// Activity timestamp already refreshed above.
		default:
			s.send(errorFrame("unknown message type: " + frame.Type))
		}
	}
}

// writeLoop drains the outgoing queue and drives the keepalive ticker.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case frame := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Debug("Connection write failed", "error", err)
				s.close(websocket.CloseAbnormalClosure, "")
				return
			}
			if s.metrics != nil {
				s.metrics.FramesSentTotal.Inc()
			}

		case <-ticker.C:
			idle := time.Since(time.Unix(0, s.lastActivity.Load()))
			if idle > 3*s.pingInterval {
				s.logger.Info("Closing idle session", "idle", idle)
				s.close(websocket.CloseGoingAway, "keepalive timeout")
				return
			}

			now := json.RawMessage(strconv.FormatInt(time.Now().Unix(), 10))
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(keepaliveFrame{Type: framePing, Timestamp: now}); err != nil {
				s.close(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}

// handleSubscribe adds a subscription and starts its forwarder. Subscribing
// again with the same key resets the existing subscription.
//
// The live store subscription is registered before the snapshot is produced;
// deltas arriving during the replay buffer in its queue and follow the
// snapshot, so the client never observes a gap.
func (s *Session) handleSubscribe(resourceType, namespace string) {
	kind, err := resources.ParseKind(resourceType)
	if err != nil {
		s.send(errorFrame("unknown resource type: " + resourceType))
		return
	}
	key := subKey{kind: kind, namespace: namespace}

	s.mu.Lock()
	// A close racing this frame has already emptied s.subs; registering a
	// store subscription now would leak it until process exit.
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	if prev, ok := s.subs[key]; ok {
		prev.live.Close()
		close(prev.cancel)
	}
	sub := &subscription{
		key:    key,
		live:   s.store.Subscribe(kind),
		cancel: make(chan struct{}),
	}
	s.subs[key] = sub
	s.mu.Unlock()

	s.send(ackFrame{Type: frameSubscribed, ResourceType: resourceType, Namespace: namespace})
	go s.forward(sub, resourceType)
}

// handleUnsubscribe removes the subscription for the exact
// (resourceType, namespace-or-all) key.
func (s *Session) handleUnsubscribe(resourceType, namespace string) {
	kind, err := resources.ParseKind(resourceType)
	if err != nil {
		s.send(errorFrame("unknown resource type: " + resourceType))
		return
	}
	key := subKey{kind: kind, namespace: namespace}

	s.mu.Lock()
	sub, ok := s.subs[key]
	if ok {
		delete(s.subs, key)
	}
	s.mu.Unlock()

	if !ok {
		s.send(errorFrame("not subscribed to " + resourceType))
		return
	}

	sub.live.Close()
	close(sub.cancel)
	s.send(ackFrame{Type: frameUnsubscribed, ResourceType: resourceType, Namespace: namespace})
}

// forward replays the snapshot for a fresh subscription and then streams
// live deltas until the subscription or the session ends.
func (s *Session) forward(sub *subscription, resourceType string) {
	s.replaySnapshot(sub, resourceType)

	var seenLag uint64
	for {
		select {
		case <-sub.cancel:
			return
		case <-s.done:
			return

		case event := <-sub.live.Events():
			if lag := sub.live.Lagged(); lag != seenLag {
				seenLag = lag
				if s.metrics != nil {
					s.metrics.SubscriptionLagTotal.Inc()
				}
				s.send(warningFrame("event stream lagged, resynchronizing"))
				s.replaySnapshot(sub, resourceType)
				continue
			}
			if !matchRecord(sub.key, event.Record) {
				continue
			}
			s.send(resourceFrame{
				Type:         frameResource,
				EventType:    event.Type,
				ResourceType: resourceType,
				Resource:     event.Record,
			})
		}
	}
}

// replaySnapshot emits the current store contents for a subscription as an
// INITIAL burst followed by the completion sentinel.
func (s *Session) replaySnapshot(sub *subscription, resourceType string) {
	snapshot := s.store.Snapshot(sub.key.kind, "")

	count := 0
	for _, rec := range snapshot {
		if !matchRecord(sub.key, rec) {
			continue
		}
		if !s.send(resourceFrame{
			Type:         frameResource,
			EventType:    store.EventInitial,
			ResourceType: resourceType,
			Resource:     rec,
		}) {
			return
		}
		count++
	}

	namespace := sub.key.namespace
	if namespace == "" {
		namespace = "all"
	}
	s.send(initialCompleteFrame{
		Type:         frameInitialComplete,
		ResourceType: resourceType,
		Count:        count,
		Namespace:    namespace,
	})
}

// matchRecord applies the subscription's namespace filter. Namespace records
// are matched on their own name since they carry no namespace of their own.
func matchRecord(key subKey, rec *resources.Record) bool {
	if key.namespace == "" {
		return true
	}
	if key.kind == resources.KindNamespace {
		return rec.Name == key.namespace
	}
	return rec.Namespace == key.namespace
}

// send enqueues a frame for the write loop. A full queue marks the client as
// a slow consumer and ends the session with close code 1013.
func (s *Session) send(frame interface{}) bool {
	select {
	case s.out <- frame:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn("Outgoing queue overflow, closing slow consumer")
		s.close(websocket.CloseTryAgainLater, "slow consumer")
		return false
	}
}

// close tears the session down exactly once: close frame to the client,
// subscriptions released, connection closed, owner notified.
func (s *Session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		for _, sub := range s.subs {
			sub.live.Close()
			close(sub.cancel)
		}
		s.subs = make(map[subKey]*subscription)
		s.mu.Unlock()

		message := websocket.FormatCloseMessage(code, reason)
		s.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		s.conn.Close()

		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
