// Package api is the HTTP layer of the visualization server. It exposes
// repository snapshot management, the per-repository view pipeline, an SSE
// event stream and a WebSocket interaction channel.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/drishti/drishti-viz/internal/store"
	"github.com/drishti/drishti-viz/internal/transition"
	"github.com/drishti/drishti-viz/internal/view"
)

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server is the HTTP API layer. View managers are created lazily per
// repository and kept for the lifetime of the process (or until the
// repository is deleted).
type Server struct {
	store  *store.Store
	sse    *SSEBroadcaster
	mux    *http.ServeMux
	server *http.Server
	phase  time.Duration

	viewsMu sync.Mutex
	views   map[string]*view.Manager // repo ID → manager

	importLimiter *rate.Limiter
}

// NewServer creates a Server wired to the given store and SSE broadcaster.
// phase is the transition animation phase duration; importRPS throttles
// snapshot imports.
func NewServer(st *store.Store, sse *SSEBroadcaster, phase time.Duration, importRPS float64) *Server {
	if sse == nil {
		sse = NewSSEBroadcaster()
	}
	if importRPS <= 0 {
		importRPS = 2
	}
	return &Server{
		store:         st,
		sse:           sse,
		mux:           http.NewServeMux(),
		phase:         phase,
		views:         make(map[string]*view.Manager),
		importLimiter: rate.NewLimiter(rate.Limit(importRPS), int(importRPS)+1),
	}
}

// RegisterRoutes wires up every API endpoint.
func (s *Server) RegisterRoutes() {
	// -- Repository / snapshot endpoints ----------------------------------
	s.mux.HandleFunc("POST /api/repos",
		s.withRateLimit(s.importLimiter, s.handleImport))
	s.mux.HandleFunc("GET /api/repos", s.handleListRepos)
	s.mux.HandleFunc("GET /api/repos/{id}", s.handleGetRepo)
	s.mux.HandleFunc("DELETE /api/repos/{id}", s.handleDeleteRepo)
	s.mux.HandleFunc("GET /api/repos/{id}/stats", s.handleRepoStats)
	s.mux.HandleFunc("GET /api/repos/{id}/search", s.handleSearch)

	// -- View endpoints ---------------------------------------------------
	s.mux.HandleFunc("GET /api/repos/{id}/view", s.handleGetView)
	s.mux.HandleFunc("PUT /api/repos/{id}/view", s.handleUpdateView)
	s.mux.HandleFunc("POST /api/repos/{id}/view/focus", s.handleFocus)
	s.mux.HandleFunc("GET /api/repos/{id}/matrix", s.handleMatrix)
	s.mux.HandleFunc("GET /api/repos/{id}/nodes/{nodeID}", s.handleNode)

	// -- Interaction channels ---------------------------------------------
	s.mux.HandleFunc("GET /api/events", s.handleSSE)
	s.mux.HandleFunc("GET /api/repos/{id}/ws", s.handleWebSocket)

	// -- Health check -----------------------------------------------------
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// viewFor returns the view manager for a repository, creating it from the
// stored snapshot on first use.
func (s *Server) viewFor(ctx context.Context, repoID string) (*view.Manager, error) {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()

	if mgr, ok := s.views[repoID]; ok {
		return mgr, nil
	}

	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	snap, err := s.store.LoadSnapshot(ctx, repoID)
	if err != nil {
		return nil, err
	}

	mgr := view.NewManager(snap, transition.TimerScheduler{}, s.phase)
	mgr.OnTransition(func(ev transition.Event) {
		s.sse.Broadcast(SSEEvent{Event: EventTransition, Data: map[string]any{
			"repo_id":    repoID,
			"transition": ev,
		}})
	})
	s.views[repoID] = mgr
	return mgr, nil
}

// dropView discards a repository's cached view manager.
func (s *Server) dropView(repoID string) {
	s.viewsMu.Lock()
	delete(s.views, repoID)
	s.viewsMu.Unlock()
}

// Handler returns the fully-wrapped http.Handler (middleware chain + mux).
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoveryMiddleware(h)
	h = loggingMiddleware(h)
	h = corsMiddleware(h)
	return h
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "drishti-viz",
	})
}

// ---------------------------------------------------------------------------
// JSON response helpers
// ---------------------------------------------------------------------------

// writeJSON writes an arbitrary value as JSON with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a standardised JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "repository not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// corsMiddleware allows requests from localhost dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "http://localhost:5173"
		}

		if strings.HasPrefix(origin, "http://localhost:") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseRecorder captures the status code written by downstream handlers.
// It also implements http.Flusher so SSE streaming works through the
// logging middleware.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher by delegating to the underlying writer.
func (rr *responseRecorder) Flush() {
	if f, ok := rr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// loggingMiddleware logs method, path, duration and status code.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware catches panics and returns a 500 response.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				slog.Error("panic recovered",
					"error", err,
					"stack", string(stack),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error":"internal server error"}`)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRateLimit wraps a handler with a token-bucket rate limiter.
// Returns 429 when the limiter is exhausted.
// NOTE: this is a per-server limiter (not per-IP).
func (s *Server) withRateLimit(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"rate limit exceeded","retry_after_ms":1000}`)
			slog.Warn("rate limit exceeded",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			return
		}
		next(w, r)
	}
}
