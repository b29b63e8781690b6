package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	gwmetrics "kube-liveview/pkg/gateway/metrics"
	"kube-liveview/pkg/gateway/store"
)

const shutdownDrain = 5 * time.Second

// Config carries the session layer tunables.
type Config struct {
	// PingInterval is the keepalive cadence. Sessions with no inbound
	// frame for three intervals are closed.
	PingInterval time.Duration

	// QueueSize caps each session's outgoing frame queue.
	QueueSize int

	// MaxSessions caps concurrently admitted connections. Excess
	// connections are closed with code 1013.
	MaxSessions int

	// AuthFunc is consulted once per connection at accept time. A nil
	// hook admits everyone; a non-nil error closes the connection with
	// code 1008.
	AuthFunc func(*http.Request) error
}

// Manager upgrades HTTP requests to WebSocket sessions and owns the live
// session set.
type Manager struct {
	store   *store.Store
	logger  *slog.Logger
	metrics *gwmetrics.Metrics
	cfg     Config

	upgrader websocket.Upgrader
	slots    chan struct{}

	mu       sync.Mutex
	sessions map[string]*Session
	draining bool
}

// NewManager creates a session manager serving the given store.
func NewManager(st *store.Store, cfg Config, logger *slog.Logger, metrics *gwmetrics.Metrics) *Manager {
	return &Manager{
		store:   st,
		logger:  logger.With("component", "session-manager"),
		metrics: metrics,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The gateway serves trusted dashboards on the same
			// origin or behind a reverse proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		slots:    make(chan struct{}, cfg.MaxSessions),
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and serves the session until the connection
// closes. The handler goroutine becomes the session's read loop.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Debug("Upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	if m.cfg.AuthFunc != nil {
		if err := m.cfg.AuthFunc(r); err != nil {
			m.reject(conn, websocket.ClosePolicyViolation, err.Error())
			return
		}
	}

	select {
	case m.slots <- struct{}{}:
	default:
		m.reject(conn, websocket.CloseTryAgainLater, "session limit reached")
		return
	}

	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		<-m.slots
		m.reject(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	s := newSession(uuid.NewString(), conn, m.store, m.logger, m.metrics, m.cfg.PingInterval, m.cfg.QueueSize, m.release)
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsActive.Inc()
		m.metrics.SessionsTotal.Inc()
	}
	m.logger.Info("Session opened", "session_id", s.id, "remote", r.RemoteAddr)

	s.run()
}

func (m *Manager) reject(conn *websocket.Conn, code int, reason string) {
	if m.metrics != nil {
		m.metrics.SessionsRejectedTotal.Inc()
	}
	m.logger.Warn("Session rejected", "reason", reason)
	message := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	conn.Close()
}

// release is each session's close callback.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.id]
	if ok {
		delete(m.sessions, s.id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	<-m.slots
	if m.metrics != nil {
		m.metrics.SessionsActive.Dec()
	}
	m.logger.Info("Session closed", "session_id", s.id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run blocks until the context is cancelled, then closes every session with
// close code 1001 and waits up to the drain window for them to finish.
func (m *Manager) Run(ctx context.Context) error {
	<-ctx.Done()

	m.mu.Lock()
	m.draining = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	m.logger.Info("Draining sessions", "count", len(open))
	for _, s := range open {
		s.close(websocket.CloseGoingAway, "server shutting down")
	}

	deadline := time.Now().Add(shutdownDrain)
	for m.Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
