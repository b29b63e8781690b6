// Package httpapi exposes the gateway's HTTP surface: the WebSocket
// endpoint, the deprecated snapshot REST routes, and health.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kube-liveview/pkg/gateway/metricsreader"
	"kube-liveview/pkg/gateway/store"
	"kube-liveview/pkg/k8s/client"
	"kube-liveview/pkg/k8s/resources"
)

// Config carries the HTTP surface dependencies.
type Config struct {
	Store   *store.Store
	Reader  *metricsreader.Reader
	WS      http.Handler
	Logger  *slog.Logger
	Version string
}

// Server serves the REST and WebSocket routes on one listener.
type Server struct {
	addr    string
	store   *store.Store
	reader  *metricsreader.Reader
	logger  *slog.Logger
	version string
	server  *http.Server
}

// NewServer builds the route table and the underlying http.Server.
func NewServer(addr string, cfg Config) *Server {
	s := &Server{
		addr:    addr,
		store:   cfg.Store,
		reader:  cfg.Reader,
		logger:  cfg.Logger.With("component", "httpapi"),
		version: cfg.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /api/k8s/ws", cfg.WS)
	mux.HandleFunc("GET /api/k8s/namespaces", s.snapshotList(resources.KindNamespace))
	mux.HandleFunc("GET /api/k8s/deployments", s.snapshotList(resources.KindDeployment))
	mux.HandleFunc("GET /api/k8s/deployments/{namespace}/{name}", s.handleDeployment)
	mux.HandleFunc("GET /api/k8s/statefulsets", s.snapshotList(resources.KindStatefulSet))
	mux.HandleFunc("GET /api/k8s/pods", s.snapshotList(resources.KindPod))
	mux.HandleFunc("GET /api/k8s/pods/{namespace}/{name}", s.handlePod)
	mux.HandleFunc("GET /api/k8s/metrics/{namespace}/{pod}", s.handleMetrics)
	mux.HandleFunc("POST /api/k8s/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/", s.handleNotFound)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route table, for serving through httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the listener until the context is cancelled, then shuts down
// gracefully. WebSocket connections are drained by the session manager, not
// here.
func (s *Server) Start(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "ok",
		"version":              s.version,
		"kubernetes_connected": true,
	})
}

// snapshotList serves the deprecated polling endpoints from the store.
// Clients should migrate to the WebSocket stream.
func (s *Server) snapshotList(kind resources.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logDeprecated(r)
		namespace := r.URL.Query().Get("namespace")
		items := s.store.Snapshot(kind, namespace)
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
	}
}

// podDetail is a pod record with its usage sample attached.
type podDetail struct {
	*resources.Record
	Metrics *client.PodMetrics `json:"metrics,omitempty"`
}

// deploymentDetail is a deployment record with its pods attached.
type deploymentDetail struct {
	*resources.Record
	Pods []podDetail `json:"pods"`
}

func (s *Server) handleDeployment(w http.ResponseWriter, r *http.Request) {
	s.logDeprecated(r)
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	rec, ok := s.store.Get(resources.KindDeployment, namespace, name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "deployment "+namespace+"/"+name+" not found")
		return
	}

	detail := deploymentDetail{Record: rec, Pods: []podDetail{}}
	for _, pod := range s.store.Snapshot(resources.KindPod, namespace) {
		if !ownedByDeployment(pod, name) {
			continue
		}
		detail.Pods = append(detail.Pods, podDetail{
			Record:  pod,
			Metrics: s.podMetrics(r.Context(), namespace, pod.Name),
		})
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePod(w http.ResponseWriter, r *http.Request) {
	s.logDeprecated(r)
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	rec, ok := s.store.Get(resources.KindPod, namespace, name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "pod "+namespace+"/"+name+" not found")
		return
	}
	s.writeJSON(w, http.StatusOK, podDetail{
		Record:  rec,
		Metrics: s.podMetrics(r.Context(), namespace, name),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	pod := r.PathValue("pod")

	pm, err := s.reader.PodMetrics(r.Context(), namespace, pod)
	if err != nil {
		if errors.Is(err, metricsreader.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("Metrics read failed", "namespace", namespace, "pod", pod, "error", err)
		s.writeError(w, http.StatusInternalServerError, "metrics read failed")
		return
	}
	s.writeJSON(w, http.StatusOK, pm)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n := s.reader.ClearCache()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"cleared": n,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

// podMetrics attaches usage to detail responses on a best-effort basis. A
// missing or failing metrics API must not break the snapshot routes.
func (s *Server) podMetrics(ctx context.Context, namespace, pod string) *client.PodMetrics {
	if s.reader == nil {
		return nil
	}
	pm, err := s.reader.PodMetrics(ctx, namespace, pod)
	if err != nil {
		if !errors.Is(err, metricsreader.ErrNotFound) {
			s.logger.Debug("Metrics lookup failed", "namespace", namespace, "pod", pod, "error", err)
		}
		return nil
	}
	return pm
}

// ownedByDeployment reports whether a pod belongs to the deployment through
// its ReplicaSet owner. ReplicaSets carry the deployment name plus a hash
// suffix, so the suffix is stripped and the remainder compared exactly. A
// bare prefix check would let "api" claim the pods of "api-gateway".
func ownedByDeployment(pod *resources.Record, deployment string) bool {
	for _, ref := range pod.OwnerReferences {
		if ref.Kind != "ReplicaSet" {
			continue
		}
		cut := strings.LastIndexByte(ref.Name, '-')
		if cut > 0 && ref.Name[:cut] == deployment {
			return true
		}
	}
	return false
}

func (s *Server) logDeprecated(r *http.Request) {
	s.logger.Warn("Deprecated snapshot endpoint used, migrate to /api/k8s/ws",
		"path", r.URL.Path, "remote", r.RemoteAddr)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("Response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
