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
	"log/slog"

	"github.com/google/uuid"

	"github.com/phuonguno98/wamr/internal/classifier"
	"github.com/phuonguno98/wamr/internal/collector"
	"github.com/phuonguno98/wamr/internal/config"
)

// ErrNoData means neither memory nor process sampling produced usable data.
var ErrNoData = errors.New("could not read system memory or process information")

// Result is the outcome of one run.
type Result struct {
	RunID          uuid.UUID
	Observation    *collector.Observation
	Classification classifier.Result
}

// Notes returns user-facing notices for degraded data.
func (r *Result) Notes() []string {
	var notes []string
	if r.Observation == nil {
		return notes
	}
	if r.Observation.Memory.Snapshot.Fallback {
		notes = append(notes, "memory figures are fallback placeholder values, not live data")
	}
	if r.Observation.Processes.Fallback {
		notes = append(notes, "process list is fallback placeholder data, not live data")
	}
	return notes
}

// Pipeline runs sampling then classification, in that order, once per call.
type Pipeline struct {
	config     *config.Config
	manager    *collector.Manager
	classifier *classifier.Classifier
	logger     *slog.Logger
}

// New creates a pipeline from cfg. Demo mode wires fixture sources and the fixture classifier client.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return NewWithComponents(cfg, collector.NewManager(cfg, logger), newClassifier(cfg, logger), logger)
}

// NewWithComponents creates a pipeline over explicit components.
func NewWithComponents(cfg *config.Config, manager *collector.Manager, c *classifier.Classifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{config: cfg, manager: manager, classifier: c, logger: logger}
}

func newClassifier(cfg *config.Config, logger *slog.Logger) *classifier.Classifier {
	opts := classifier.Options{
		Model:    cfg.Model,
		Platform: cfg.Platform,
		Timeout:  cfg.Timeout,
	}

	if cfg.Demo {
		return classifier.New(classifier.NewFixtureClient(), opts, logger)
	}

	var client classifier.Client
	ollama, err := classifier.NewOllamaClient(cfg.Endpoint)
	if err != nil {
		logger.Warn("Classifier client could not be created", "endpoint", cfg.Endpoint, "error", err)
	} else {
		client = ollama
	}
	return classifier.New(client, opts, logger)
}

// Sample performs only the sampling stage.
func (p *Pipeline) Sample(ctx context.Context) *collector.Observation {
	return p.manager.Collect(ctx)
}

// Run performs one full pass. It returns ErrNoData, together with the partial
// result, when the observation is unusable. An absent classification is not an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.New()}
	logger := p.logger.With("run_id", result.RunID.String())

	result.Observation = p.manager.Collect(ctx)
	if !result.Observation.Usable() {
		logger.Error("No usable memory or process data",
			"memory_error", result.Observation.Memory.Err,
			"process_error", result.Observation.Processes.Err,
		)
		return result, ErrNoData
	}

	if p.config.NoLLM {
		result.Classification = classifier.Result{Outcome: classifier.OutcomeSkipped}
		logger.Debug("Classification skipped")
		return result, nil
	}

	result.Classification = p.classifier.Classify(ctx, result.Observation.Memory.Snapshot, result.Observation.Processes.Processes)
	logger.Debug("Run completed", "outcome", result.Classification.Outcome)

	return result, nil
}
