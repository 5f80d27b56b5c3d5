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
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/phuonguno98/wamr/internal/classifier"
	"github.com/phuonguno98/wamr/internal/collector"
	"github.com/phuonguno98/wamr/internal/pipeline"
	"github.com/phuonguno98/wamr/pkg/metrics"
)

type fakeRunner struct {
	mu      sync.Mutex
	obs     *collector.Observation
	outcome classifier.Outcome
	report  *classifier.Report
	runErr  error
	runs    int
	samples int
}

func (f *fakeRunner) Sample(_ context.Context) *collector.Observation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	return f.obs
}

func (f *fakeRunner) Run(_ context.Context) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	result := &pipeline.Result{
		RunID:          uuid.New(),
		Observation:    f.obs,
		Classification: classifier.Result{Outcome: f.outcome, Report: f.report},
	}
	return result, f.runErr
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []*pipeline.Result
}

func (f *fakeRecorder) Export(result *pipeline.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func fixtureObservation() *collector.Observation {
	return &collector.Observation{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Memory: collector.MemoryResult{
			Snapshot: collector.FixtureMemory(),
			Source:   "fixture",
		},
		Processes: collector.ProcessResult{
			Processes: collector.FixtureProcesses(0),
			Source:    "fixture",
		},
	}
}

func newTestServer(runner Runner, recorder Recorder) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(runner, recorder, logger)
}

func doGet(t *testing.T, srv *Server, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w.Result()
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(&fakeRunner{obs: fixtureObservation()}, nil)

	resp := doGet(t, srv, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/health status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Cache-Control"); got == "" {
		t.Error("Cache-Control header missing")
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID", resp.Header.Get(RequestIDHeader))
	}

	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestServer_RequestIDPropagation(t *testing.T) {
	srv := newTestServer(&fakeRunner{obs: fixtureObservation()}, nil)

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "Valid incoming ID", incoming: "6f1c3a52-8d0e-4a57-9a43-1f0e1d1a2b3c", keep: true},
		{name: "Invalid incoming ID", incoming: "not-a-uuid", keep: false},
		{name: "No incoming ID", incoming: "", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/health", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if tt.keep && got != tt.incoming {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.incoming)
			}
			if !tt.keep {
				if got == tt.incoming {
					t.Errorf("X-Request-ID reused invalid value %q", got)
				}
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("X-Request-ID = %q, want a UUID", got)
				}
			}
		})
	}
}

func TestServer_Version(t *testing.T) {
	srv := newTestServer(&fakeRunner{obs: fixtureObservation()}, nil)

	resp := doGet(t, srv, "/api/version")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/version status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	decode(t, resp, &body)
	for _, key := range []string{"version", "commit", "date"} {
		if _, ok := body[key]; !ok {
			t.Errorf("version response missing %q", key)
		}
	}
}

func TestServer_Memory(t *testing.T) {
	runner := &fakeRunner{obs: fixtureObservation()}
	srv := newTestServer(runner, nil)

	resp := doGet(t, srv, "/api/memory")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/memory status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	var body memoryResponse
	decode(t, resp, &body)

	if body.Memory.TotalMB != 16384 {
		t.Errorf("TotalMB = %v, want 16384", body.Memory.TotalMB)
	}
	if body.Status != metrics.StatusFor(body.Memory.UsedPercent) {
		t.Errorf("Status = %v, want %v", body.Status, metrics.StatusFor(body.Memory.UsedPercent))
	}
	if body.Source != "fixture" {
		t.Errorf("Source = %q, want fixture", body.Source)
	}
	if body.Degraded {
		t.Error("Degraded = true, want false")
	}
	if runner.runs != 0 {
		t.Errorf("Memory endpoint ran classification %d times", runner.runs)
	}
}

func TestServer_MemoryFallback(t *testing.T) {
	obs := fixtureObservation()
	obs.Memory = collector.MemoryResult{
		Snapshot: collector.FallbackMemory(),
		Source:   "meminfo",
		Err:      errors.New("open /proc/meminfo: permission denied"),
	}
	srv := newTestServer(&fakeRunner{obs: obs}, nil)

	var body memoryResponse
	decode(t, doGet(t, srv, "/api/memory"), &body)

	if !body.Degraded {
		t.Error("Degraded = false, want true")
	}
	if body.Error == "" {
		t.Error("Error is empty, want the source failure")
	}
}

func TestServer_Processes(t *testing.T) {
	srv := newTestServer(&fakeRunner{obs: fixtureObservation()}, nil)
	all := len(collector.FixtureProcesses(0))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "No limit", query: "", wantStatus: http.StatusOK, wantCount: all},
		{name: "Limit 3", query: "?limit=3", wantStatus: http.StatusOK, wantCount: 3},
		{name: "Limit above sample size", query: "?limit=400", wantStatus: http.StatusOK, wantCount: all},
		{name: "Zero limit", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "Negative limit", query: "?limit=-2", wantStatus: http.StatusBadRequest},
		{name: "Limit too large", query: "?limit=501", wantStatus: http.StatusBadRequest},
		{name: "Non numeric limit", query: "?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, srv, "/api/processes"+tt.query)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %v, want %v", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				decode(t, resp, &body)
				if body["error"] == "" {
					t.Error("error message is empty")
				}
				return
			}
			var body processesResponse
			decode(t, resp, &body)
			if len(body.Processes) != tt.wantCount {
				t.Errorf("len(processes) = %d, want %d", len(body.Processes), tt.wantCount)
			}
		})
	}
}

func TestServer_ProcessesEmpty(t *testing.T) {
	obs := fixtureObservation()
	obs.Processes = collector.ProcessResult{Source: "ps-aux"}
	srv := newTestServer(&fakeRunner{obs: obs}, nil)

	resp := doGet(t, srv, "/api/processes")
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	if string(body["processes"]) != "[]" {
		t.Errorf("processes = %s, want []", body["processes"])
	}
}

func TestServer_ReportClassified(t *testing.T) {
	report, err := classifier.Decode([]byte(classifier.FixturePayload))
	if err != nil {
		t.Fatalf("Decode(FixturePayload) error = %v", err)
	}
	runner := &fakeRunner{
		obs:     fixtureObservation(),
		outcome: classifier.OutcomeClassified,
		report:  report,
	}
	recorder := &fakeRecorder{}
	srv := newTestServer(runner, recorder)

	resp := doGet(t, srv, "/api/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/report status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	var body reportResponse
	decode(t, resp, &body)

	if !body.Classified {
		t.Error("Classified = false, want true")
	}
	if body.Outcome != classifier.OutcomeClassified {
		t.Errorf("Outcome = %v, want %v", body.Outcome, classifier.OutcomeClassified)
	}
	if body.Report == nil || body.Report.Summary != report.Summary {
		t.Errorf("Report = %+v, want summary %q", body.Report, report.Summary)
	}
	if len(body.Processes) != 0 {
		t.Errorf("Processes = %d, want none when classified", len(body.Processes))
	}
	if _, err := uuid.Parse(body.RunID); err != nil {
		t.Errorf("RunID = %q, want a UUID", body.RunID)
	}
	if len(recorder.results) != 1 {
		t.Errorf("recorded %d runs, want 1", len(recorder.results))
	}
}

func TestServer_ReportUnclassified(t *testing.T) {
	runner := &fakeRunner{obs: fixtureObservation(), outcome: classifier.OutcomeUnreachable}
	srv := newTestServer(runner, nil)

	var body reportResponse
	decode(t, doGet(t, srv, "/api/report"), &body)

	if body.Classified {
		t.Error("Classified = true, want false")
	}
	if body.Outcome != classifier.OutcomeUnreachable {
		t.Errorf("Outcome = %v, want %v", body.Outcome, classifier.OutcomeUnreachable)
	}
	if body.Report != nil {
		t.Error("Report present, want none")
	}
	if len(body.Processes) != len(collector.FixtureProcesses(0)) {
		t.Errorf("Processes = %d, want %d", len(body.Processes), len(collector.FixtureProcesses(0)))
	}
}

func TestServer_ReportErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "No data", err: pipeline.ErrNoData, wantStatus: http.StatusServiceUnavailable},
		{name: "Unexpected error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			srv := newTestServer(&fakeRunner{obs: fixtureObservation(), runErr: tt.err}, recorder)

			resp := doGet(t, srv, "/api/report")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.wantStatus)
			}
			var body map[string]string
			decode(t, resp, &body)
			if body["error"] == "" {
				t.Error("error message is empty")
			}
			if len(recorder.results) != 0 {
				t.Errorf("recorded %d failed runs, want 0", len(recorder.results))
			}
		})
	}
}

func TestServer_EachRequestIsFresh(t *testing.T) {
	runner := &fakeRunner{obs: fixtureObservation(), outcome: classifier.OutcomeSkipped}
	srv := newTestServer(runner, nil)

	for i := 0; i < 3; i++ {
		doGet(t, srv, "/api/report").Body.Close()
		doGet(t, srv, "/api/memory").Body.Close()
	}
	if runner.runs != 3 {
		t.Errorf("runs = %d, want 3", runner.runs)
	}
	if runner.samples != 3 {
		t.Errorf("samples = %d, want 3", runner.samples)
	}
}

func TestServer_NotFoundAndCORS(t *testing.T) {
	srv := newTestServer(&fakeRunner{obs: fixtureObservation()}, nil)

	resp := doGet(t, srv, "/api/unknown")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /api/unknown status = %v, want %v", resp.StatusCode, http.StatusNotFound)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID missing on 404")
	}

	req := httptest.NewRequest("OPTIONS", "/api/report", http.NoBody)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %v, want %v", w.Code, http.StatusOK)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing on preflight")
	}
}
