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
	"bufio"
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/phuonguno98/wamr/internal/config"
	"github.com/phuonguno98/wamr/pkg/metrics"
)

// ProcessSource reads an OS process listing and returns the top memory consumers,
// ordered by descending resident memory.
type ProcessSource interface {
	Read(ctx context.Context, limit int) ([]metrics.ProcessSample, error)
	Name() string
}

// NoiseThresholdMB is the resident size below which BSD-style rows are dropped.
// Kernel-thread-like entries report (near) zero RSS.
const NoiseThresholdMB = 1.0

const (
	sourcePSAux = "ps-aux"
	sourcePSBSD = "ps-bsd"

	psAuxColumns = 11 // USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND
	psBSDColumns = 4  // PID USER RSS COMMAND
)

var (
	psAuxArgs = []string{"aux", "--sort=-rss"}
	psBSDArgs = []string{"-ax", "-m", "-o", "pid,user,rss,command"}
)

// PSAuxSource reads `ps aux` output (GNU procps column layout).
type PSAuxSource struct {
	runner Runner
}

// NewPSAuxSource creates a GNU-style process source.
func NewPSAuxSource(runner Runner) *PSAuxSource {
	return &PSAuxSource{runner: runner}
}

// Name returns the adapter name for logging purposes.
func (s *PSAuxSource) Name() string {
	return sourcePSAux
}

// Read gathers the top limit processes.
func (s *PSAuxSource) Read(ctx context.Context, limit int) ([]metrics.ProcessSample, error) {
	out, err := s.runner.Run(ctx, "ps", psAuxArgs...)
	if err != nil {
		return nil, commandError(sourcePSAux, "ps", err)
	}
	return ParsePSAux(out, limit)
}

// ParsePSAux parses `ps aux` output. Rows with too few columns or
// non-numeric fields are skipped; output with no usable rows is a parse error.
func ParsePSAux(data []byte, limit int) ([]metrics.ProcessSample, error) {
	limit = normalizeLimit(limit)

	var (
		samples []metrics.ProcessSample
		badLine string
	)

	for _, line := range dataRows(data) {
		parts := splitFields(line, psAuxColumns)
		if len(parts) < psAuxColumns {
			badLine = firstNonEmpty(badLine, line)
			continue
		}

		pid, err := strconv.Atoi(parts[1])
		if err != nil || pid <= 0 {
			badLine = firstNonEmpty(badLine, line)
			continue
		}
		rssKB, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			badLine = firstNonEmpty(badLine, line)
			continue
		}

		samples = append(samples, metrics.NewProcessSample(pid, parts[0], metrics.KBToMB(rssKB), parts[10]))
	}

	if len(samples) == 0 {
		return nil, parseError(sourcePSAux, badLine, errors.New("no process rows parsed"))
	}

	return metrics.RankByResidentMemory(samples, limit), nil
}

// PSBSDSource reads `ps -ax -m -o pid,user,rss,command` output (BSD/macOS).
type PSBSDSource struct {
	runner Runner
}

// NewPSBSDSource creates a BSD-style process source.
func NewPSBSDSource(runner Runner) *PSBSDSource {
	return &PSBSDSource{runner: runner}
}

// Name returns the adapter name for logging purposes.
func (s *PSBSDSource) Name() string {
	return sourcePSBSD
}

// Read gathers the top limit processes.
func (s *PSBSDSource) Read(ctx context.Context, limit int) ([]metrics.ProcessSample, error) {
	out, err := s.runner.Run(ctx, "ps", psBSDArgs...)
	if err != nil {
		return nil, commandError(sourcePSBSD, "ps", err)
	}
	return ParsePSBSD(out, limit)
}

// ParsePSBSD parses BSD ps output. Only the first 2*limit rows are considered
// (the listing is memory-sorted) so noise filtering still leaves limit rows.
func ParsePSBSD(data []byte, limit int) ([]metrics.ProcessSample, error) {
	limit = normalizeLimit(limit)

	rows := dataRows(data)
	if len(rows) > limit*2 {
		rows = rows[:limit*2]
	}

	var (
		samples []metrics.ProcessSample
		badLine string
		parsed  int
	)

	for _, line := range rows {
		parts := splitFields(line, psBSDColumns)
		if len(parts) < psBSDColumns {
			badLine = firstNonEmpty(badLine, line)
			continue
		}

		pid, err := strconv.Atoi(parts[0])
		if err != nil || pid <= 0 {
			badLine = firstNonEmpty(badLine, line)
			continue
		}
		rssKB, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			badLine = firstNonEmpty(badLine, line)
			continue
		}
		parsed++

		rssMB := metrics.KBToMB(rssKB)
		if rssMB < NoiseThresholdMB {
			continue
		}

		samples = append(samples, metrics.NewProcessSample(pid, parts[1], rssMB, parts[3]))
	}

	if parsed == 0 {
		return nil, parseError(sourcePSBSD, badLine, errors.New("no process rows parsed"))
	}

	return metrics.RankByResidentMemory(samples, limit), nil
}

// UnsupportedProcessSource is used for platforms without a listing adapter.
type UnsupportedProcessSource struct {
	Platform Platform
}

// Name returns the adapter name for logging purposes.
func (s UnsupportedProcessSource) Name() string {
	return "unsupported"
}

// Read always reports the source as unavailable.
func (s UnsupportedProcessSource) Read(_ context.Context, _ int) ([]metrics.ProcessSample, error) {
	return nil, unavailable(s.Name(), errors.New("no process listing adapter for platform "+strconv.Quote(string(s.Platform))))
}

// dataRows returns the non-empty lines after the header row.
func dataRows(data []byte) []string {
	var rows []string
	header := true

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// splitFields splits s on runs of whitespace into at most n parts.
// The last part keeps its internal whitespace, so command lines survive intact.
func splitFields(s string, n int) []string {
	var parts []string
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	for len(parts) < n-1 && s != "" {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		parts = append(parts, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}

	if s = strings.TrimRightFunc(s, unicode.IsSpace); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return config.DefaultTopN
	}
	return limit
}

func firstNonEmpty(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}
