// Package api exposes the self-test engine over HTTP: a synchronous
// POST endpoint that runs the requested checks and returns a report, and
// a WebSocket stream that emits each property/scenario/timing result
// once the run that produced it has finished, followed by a done event.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lookbusy1344/constant-time-go/selftest"
)

// Server represents the HTTP API server.
type Server struct {
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	port        int
	runCounter  uint64
}

// NewServer creates a new API server.
func NewServer(port int) *Server {
	s := &Server{
		broadcaster: NewBroadcaster(),
		mux:         http.NewServeMux(),
		port:        port,
	}

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/v1/selftest", s.handleRunSelftest)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a full self-test run with timing checks can take a while
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("ctcheck API server starting on http://127.0.0.1:%d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetBroadcaster returns the broadcaster (for testing).
func (s *Server) GetBroadcaster() *Broadcaster {
	return s.broadcaster
}

// corsMiddleware adds CORS headers restricted to localhost origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks if the origin is from localhost.
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "file://") {
		return true
	}
	if strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1") {
		return true
	}
	return false
}

func (s *Server) nextRunID() string {
	n := atomic.AddUint64(&s.runCounter, 1)
	return fmt.Sprintf("run-%d-%d", time.Now().UnixNano(), n)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":        "ok",
		"subscriptions": s.broadcaster.SubscriptionCount(),
		"time":          time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// handleRunSelftest runs the self-test suite synchronously. When the run
// has finished it broadcasts one event per property, scenario and timing
// result, then a done event, and returns the aggregated report to the
// HTTP caller; no events are sent while the run is still in progress.
func (s *Server) handleRunSelftest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := selftest.DefaultOptions()
	if req.Iterations > 0 {
		opts.Iterations = req.Iterations
	}
	opts.RunProperties = req.RunProperties
	opts.RunScenarios = req.RunScenarios
	opts.RunTiming = req.RunTiming
	if req.TimingSamples > 0 {
		opts.TimingSamples = req.TimingSamples
	}
	if req.MaxSkewRatio > 0 {
		opts.MaxSkewRatio = req.MaxSkewRatio
	}
	opts.FailFast = req.FailFast

	runID := s.nextRunID()
	rep := selftest.Run(opts)

	for _, p := range rep.Properties {
		s.broadcaster.BroadcastProperty(runID, p.Name, p.Passed, p.FailureDetail)
	}
	for _, sc := range rep.Scenarios {
		s.broadcaster.BroadcastScenario(runID, sc.Name, sc.Passed, sc.FailureDetail)
	}
	for _, tm := range rep.Timing {
		s.broadcaster.Broadcast(BroadcastEvent{
			Type:  EventTypeTiming,
			RunID: runID,
			Data: map[string]interface{}{
				"name":         tm.Name,
				"passed":       tm.Passed,
				"skewRatio":    tm.SkewRatio,
				"maxSkewRatio": tm.MaxSkewRatio,
			},
		})
	}
	s.broadcaster.BroadcastDone(runID, rep.Passed(), rep.FailureCount())

	writeJSON(w, http.StatusOK, RunResponse{
		RunID:        runID,
		Passed:       rep.Passed(),
		FailureCount: rep.FailureCount(),
		Report:       rep,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1024*1024))
	return decoder.Decode(v)
}
