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

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/phuonguno98/wamr/internal/classifier"
	"github.com/phuonguno98/wamr/internal/collector"
	"github.com/phuonguno98/wamr/internal/config"
	"github.com/phuonguno98/wamr/pkg/metrics"
)

type brokenMemory struct{}

func (brokenMemory) Name() string { return "broken" }
func (brokenMemory) Read(context.Context) (metrics.MemorySnapshot, error) {
	return metrics.MemorySnapshot{}, &collector.SourceError{Source: "broken", Kind: collector.KindUnavailable, Err: errors.New("denied")}
}

type brokenProcesses struct{}

func (brokenProcesses) Name() string { return "broken" }
func (brokenProcesses) Read(context.Context, int) ([]metrics.ProcessSample, error) {
	return nil, &collector.SourceError{Source: "broken", Kind: collector.KindParse, Err: errors.New("garbled")}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func demoConfig() *config.Config {
	return &config.Config{
		Platform: "linux",
		Model:    config.DefaultModel,
		Timeout:  time.Second,
		TopN:     config.DefaultTopN,
		Demo:     true,
	}
}

func TestRun_Demo(t *testing.T) {
	result, err := New(demoConfig(), discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.RunID == uuid.Nil {
		t.Error("RunID not set")
	}
	if !result.Classification.Classified() {
		t.Fatalf("demo run should be classified: %+v", result.Classification)
	}
	if got := result.Observation.Memory.Snapshot.Status(); got != metrics.StatusWarning {
		t.Errorf("status = %v, want WARNING", got)
	}
	if len(result.Notes()) != 0 {
		t.Errorf("demo data is not degraded, notes = %v", result.Notes())
	}
}

func TestRun_NoLLM(t *testing.T) {
	cfg := demoConfig()
	cfg.NoLLM = true

	result, err := New(cfg, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Classification.Outcome != classifier.OutcomeSkipped || result.Classification.Report != nil {
		t.Errorf("classification = %+v, want skipped", result.Classification)
	}
}

func TestRun_StrictNoData(t *testing.T) {
	cfg := demoConfig()
	cfg.Demo = false
	cfg.Strict = true
	manager := collector.NewManagerWithSources(cfg, brokenMemory{}, brokenProcesses{}, discardLogger())
	p := NewWithComponents(cfg, manager, classifier.New(classifier.NewFixtureClient(), classifier.Options{}, discardLogger()), discardLogger())

	result, err := p.Run(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Run() error = %v, want ErrNoData", err)
	}
	if result == nil || result.Observation == nil {
		t.Fatal("partial result should be returned")
	}
}

func TestRun_FallbackIsDegradedNotFatal(t *testing.T) {
	cfg := demoConfig()
	cfg.Demo = false
	cfg.NoLLM = true
	manager := collector.NewManagerWithSources(cfg, brokenMemory{}, brokenProcesses{}, discardLogger())

	result, err := NewWithComponents(cfg, manager, nil, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Notes()) != 2 {
		t.Errorf("Notes() = %v, want memory and process notices", result.Notes())
	}
}

func TestRun_ClassifierAbsentIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cfg := demoConfig()
	cfg.Demo = false
	cfg.Endpoint = ts.URL
	manager := collector.NewManagerWithSources(cfg, collector.FixtureMemorySource{}, collector.FixtureProcessSource{}, discardLogger())

	p := NewWithComponents(cfg, manager, newClassifier(cfg, discardLogger()), discardLogger())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Classification.Outcome != classifier.OutcomeServiceError {
		t.Errorf("Outcome = %v, want %v", result.Classification.Outcome, classifier.OutcomeServiceError)
	}
}

func TestNewClassifier_InvalidEndpoint(t *testing.T) {
	cfg := demoConfig()
	cfg.Demo = false
	cfg.Endpoint = "not a url"

	result := newClassifier(cfg, discardLogger()).Classify(context.Background(), metrics.MemorySnapshot{}, nil)
	if result.Outcome != classifier.OutcomeClientUnavailable {
		t.Errorf("Outcome = %v, want %v", result.Outcome, classifier.OutcomeClientUnavailable)
	}
}
