/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/phuonguno98/wamr/internal/classifier"
	"github.com/phuonguno98/wamr/internal/collector"
	"github.com/phuonguno98/wamr/internal/pipeline"
	"github.com/phuonguno98/wamr/pkg/metrics"
	"github.com/phuonguno98/wamr/pkg/version"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

// MaxProcessLimit bounds the limit query parameter.
const MaxProcessLimit = 500

// Runner is the analysis pipeline served over HTTP. Every call is a fresh run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
	Sample(ctx context.Context) *collector.Observation
}

// Recorder receives every completed report run, e.g. a CSV history exporter.
type Recorder interface {
	Export(result *pipeline.Result) error
}

// Server exposes the pipeline as a JSON API.
type Server struct {
	runner   Runner
	recorder Recorder
	recordMu sync.Mutex
	logger   *slog.Logger
	router   *mux.Router
}

type contextKey struct{}

// NewServer creates a new API server. recorder may be nil.
func NewServer(runner Runner, recorder Recorder, logger *slog.Logger) *Server {
	s := &Server{
		runner:   runner,
		recorder: recorder,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	// Add CORS middleware
	s.router.Use(corsMiddleware)
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/memory", s.handleGetMemory).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/processes", s.handleGetProcesses).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/report", s.handleGetReport).Methods("GET", "OPTIONS")

	s.router.NotFoundHandler = requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, "Not found", http.StatusNotFound)
	}))
}

// requestIDMiddleware tags each request with a UUID, reusing a valid incoming one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

// RequestID returns the identifier assigned by the server, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	versionInfo := map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	}
	s.writeJSON(w, versionInfo)
}

type memoryResponse struct {
	Timestamp time.Time              `json:"timestamp"`
	Memory    metrics.MemorySnapshot `json:"memory"`
	Status    metrics.Status         `json:"status"`
	Source    string                 `json:"source"`
	Degraded  bool                   `json:"degraded"`
	Error     string                 `json:"error,omitempty"`
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	obs := s.runner.Sample(r.Context())
	mem := obs.Memory

	resp := memoryResponse{
		Timestamp: obs.Timestamp,
		Memory:    mem.Snapshot,
		Status:    mem.Snapshot.Status(),
		Source:    mem.Source,
		Degraded:  mem.Snapshot.Fallback,
	}
	if mem.Err != nil {
		resp.Error = mem.Err.Error()
	}
	s.writeJSON(w, resp)
}

type processesResponse struct {
	Timestamp time.Time               `json:"timestamp"`
	Processes []metrics.ProcessSample `json:"processes"`
	Source    string                  `json:"source"`
	Degraded  bool                    `json:"degraded"`
	Error     string                  `json:"error,omitempty"`
}

func (s *Server) handleGetProcesses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > MaxProcessLimit {
			s.writeError(w, "limit must be an integer between 1 and "+strconv.Itoa(MaxProcessLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	obs := s.runner.Sample(r.Context())
	procs := obs.Processes

	resp := processesResponse{
		Timestamp: obs.Timestamp,
		Processes: obs.TopProcesses(limit),
		Source:    procs.Source,
		Degraded:  procs.Fallback,
	}
	if resp.Processes == nil {
		resp.Processes = []metrics.ProcessSample{}
	}
	if procs.Err != nil {
		resp.Error = procs.Err.Error()
	}
	s.writeJSON(w, resp)
}

type reportResponse struct {
	RunID      string                  `json:"run_id"`
	Timestamp  time.Time               `json:"timestamp"`
	Memory     metrics.MemorySnapshot  `json:"memory"`
	Status     metrics.Status          `json:"status"`
	Degraded   bool                    `json:"degraded"`
	Classified bool                    `json:"classified"`
	Outcome    classifier.Outcome      `json:"outcome"`
	Report     *classifier.Report      `json:"report,omitempty"`
	Processes  []metrics.ProcessSample `json:"processes,omitempty"`
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			s.writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("Report run failed", "error", err)
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.record(result)

	obs := result.Observation
	resp := reportResponse{
		RunID:      result.RunID.String(),
		Timestamp:  obs.Timestamp,
		Memory:     obs.Memory.Snapshot,
		Status:     obs.Memory.Snapshot.Status(),
		Degraded:   obs.Degraded(),
		Classified: result.Classification.Classified(),
		Outcome:    result.Classification.Outcome,
	}
	if resp.Classified {
		normalized := result.Classification.Report.Normalized()
		resp.Report = &normalized
	} else {
		resp.Processes = obs.Processes.Processes
	}

	s.writeJSON(w, resp)
}

// record hands a result to the recorder. Handlers run concurrently, so writes are serialized.
func (s *Server) record(result *pipeline.Result) {
	if s.recorder == nil {
		return
	}
	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	if err := s.recorder.Export(result); err != nil {
		s.logger.Error("Failed to record run", "run_id", result.RunID, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
