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

package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/phuonguno98/wamr/internal/config"
	"github.com/phuonguno98/wamr/pkg/metrics"
)

// Observation is everything sampled during one run.
type Observation struct {
	Timestamp time.Time
	Memory    MemoryResult
	Processes ProcessResult
}

// Usable reports whether the observation holds any data worth reporting.
func (o *Observation) Usable() bool {
	return o.Memory.Snapshot.TotalMB > 0 || len(o.Processes.Processes) > 0
}

// Degraded reports whether any part of the observation is fallback data.
func (o *Observation) Degraded() bool {
	return o.Memory.Snapshot.Fallback || o.Processes.Fallback
}

// Manager samples memory then processes for one analysis run.
type Manager struct {
	config  *config.Config
	memory  *MemorySampler
	process *ProcessSampler
	logger  *slog.Logger
}

// NewManager creates a manager whose sources are chosen from cfg.
// Demo mode uses the literal fixtures; strict mode disables fallback data.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	var (
		memSource  MemorySource
		procSource ProcessSource
	)

	if cfg.Demo {
		memSource = FixtureMemorySource{}
		procSource = FixtureProcessSource{}
	} else {
		runner := ExecRunner{}
		platform := Platform(cfg.Platform)
		memSource = NewMemorySource(platform, runner)
		procSource = NewProcessSource(platform, runner)
	}

	return NewManagerWithSources(cfg, memSource, procSource, logger)
}

// NewManagerWithSources creates a manager over explicit sources.
func NewManagerWithSources(cfg *config.Config, memSource MemorySource, procSource ProcessSource, logger *slog.Logger) *Manager {
	fallback := !cfg.Strict
	return &Manager{
		config:  cfg,
		memory:  NewMemorySampler(memSource, fallback, logger),
		process: NewProcessSampler(procSource, fallback, logger),
		logger:  logger,
	}
}

// Collect performs one sampling pass. Memory is read before processes.
func (m *Manager) Collect(ctx context.Context) *Observation {
	obs := &Observation{Timestamp: time.Now()}

	m.logger.Debug("Sampling memory", "source", m.memory.source.Name())
	obs.Memory = m.memory.Sample(ctx)

	m.logger.Debug("Sampling processes",
		"source", m.process.source.Name(),
		"limit", m.config.TopN,
	)
	obs.Processes = m.process.Sample(ctx, m.config.TopN)

	m.logger.Info("Sampling completed",
		"used_percent", obs.Memory.Snapshot.UsedPercent,
		"status", obs.Memory.Snapshot.Status(),
		"processes", len(obs.Processes.Processes),
		"memory_fallback", obs.Memory.Snapshot.Fallback,
		"process_fallback", obs.Processes.Fallback,
	)

	return obs
}

// TopProcesses returns at most n of the observed processes, in rank order.
func (o *Observation) TopProcesses(n int) []metrics.ProcessSample {
	if n <= 0 || n >= len(o.Processes.Processes) {
		return o.Processes.Processes
	}
	return o.Processes.Processes[:n]
}
