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
	"errors"
	"log/slog"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// MemoryResult is the outcome of one memory sampling.
// Err is non-nil when the live source failed; Snapshot then holds fallback
// values (Snapshot.Fallback is set) or, with fallback disabled, zeros.
type MemoryResult struct {
	Snapshot metrics.MemorySnapshot
	Source   string
	Err      error
}

// ProcessResult is the outcome of one process sampling.
// Err is non-nil when the live source failed; Fallback reports whether
// Processes holds placeholder rows.
type ProcessResult struct {
	Processes []metrics.ProcessSample
	Source    string
	Fallback  bool
	Err       error
}

// MemorySampler wraps a MemorySource so that sampling never fails:
// a failed read is logged and replaced by fallback data.
type MemorySampler struct {
	source   MemorySource
	fallback bool
	logger   *slog.Logger
}

// NewMemorySampler creates a sampler. With fallback false a failed read yields a zero snapshot.
func NewMemorySampler(source MemorySource, fallback bool, logger *slog.Logger) *MemorySampler {
	return &MemorySampler{source: source, fallback: fallback, logger: logger}
}

// Sample reads the source once.
func (s *MemorySampler) Sample(ctx context.Context) MemoryResult {
	snapshot, err := s.source.Read(ctx)
	result := MemoryResult{Snapshot: snapshot, Source: s.source.Name(), Err: err}
	if err == nil {
		return result
	}

	logSourceFailure(s.logger, "memory", s.source.Name(), err, s.fallback)

	if s.fallback {
		result.Snapshot = FallbackMemory()
	} else {
		result.Snapshot = metrics.MemorySnapshot{}
	}
	return result
}

// ProcessSampler wraps a ProcessSource so that sampling never fails.
type ProcessSampler struct {
	source   ProcessSource
	fallback bool
	logger   *slog.Logger
}

// NewProcessSampler creates a sampler. With fallback false a failed read yields no processes.
func NewProcessSampler(source ProcessSource, fallback bool, logger *slog.Logger) *ProcessSampler {
	return &ProcessSampler{source: source, fallback: fallback, logger: logger}
}

// Sample reads up to limit processes.
func (s *ProcessSampler) Sample(ctx context.Context, limit int) ProcessResult {
	processes, err := s.source.Read(ctx, limit)
	result := ProcessResult{Processes: processes, Source: s.source.Name(), Err: err}
	if err == nil {
		return result
	}

	logSourceFailure(s.logger, "process", s.source.Name(), err, s.fallback)

	result.Processes = nil
	if s.fallback {
		result.Processes = FixtureProcesses(limit)
		result.Fallback = true
	}
	return result
}

// logSourceFailure emits a diagnostic that names the failing source and
// distinguishes an unavailable mechanism from unparseable output.
func logSourceFailure(logger *slog.Logger, role, source string, err error, fallback bool) {
	attrs := []any{
		"source", source,
		"kind", string(KindOf(err)),
		"error", err,
	}
	var se *SourceError
	if errors.As(err, &se) && se.Line != "" {
		attrs = append(attrs, "line", se.Line)
	}

	outcome := "no data"
	if fallback {
		outcome = "using fallback data"
	}

	switch KindOf(err) {
	case KindUnavailable:
		logger.Warn("The "+role+" source is unavailable (restricted environment or missing tool), "+outcome, attrs...)
	case KindParse:
		logger.Warn("The "+role+" source output did not match the expected format, "+outcome, attrs...)
	default:
		logger.Warn("The "+role+" source failed, "+outcome, attrs...)
	}
}
