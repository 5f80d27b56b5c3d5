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

	"github.com/phuonguno98/wamr/pkg/metrics"
)

type fixtureProcess struct {
	pid     int
	rssMB   float64
	command string
}

// Literal data used for demo runs and as fallback values.
var (
	fixtureTotalMB = 16384.0
	fixtureUsedMB  = 12000.0
	fixtureFreeMB  = 4384.0

	fixtureUser      = "username"
	fixtureProcesses = []fixtureProcess{
		{12091, 3276.8, "/usr/bin/chrome --type=renderer"},
		{8432, 2150.4, "docker-compose up"},
		{15678, 1024.5, "/usr/share/code/code"},
		{14233, 1482.3, "node server.js"},
		{9876, 1150.0, "ollama serve"},
		{7654, 856.2, "/usr/bin/slack"},
		{3421, 642.8, "/usr/lib/postgresql/16/bin/postgres -D /var/lib/postgresql/16/main"},
		{5234, 324.5, "redis-server *:6379"},
	}
)

// FixtureMemory returns the literal memory snapshot (16 GB total, 12000 MB used).
func FixtureMemory() metrics.MemorySnapshot {
	return metrics.NewMemorySnapshot(fixtureTotalMB, fixtureUsedMB, fixtureFreeMB)
}

// FixtureProcesses returns the literal process list, ranked and limited.
func FixtureProcesses(limit int) []metrics.ProcessSample {
	samples := make([]metrics.ProcessSample, 0, len(fixtureProcesses))
	for _, p := range fixtureProcesses {
		samples = append(samples, metrics.NewProcessSample(p.pid, fixtureUser, p.rssMB, p.command))
	}
	return metrics.RankByResidentMemory(samples, normalizeLimit(limit))
}

// FallbackMemory returns the fixture snapshot flagged as placeholder data.
func FallbackMemory() metrics.MemorySnapshot {
	s := FixtureMemory()
	s.Fallback = true
	return s
}

// FixtureMemorySource serves FixtureMemory.
type FixtureMemorySource struct{}

// Name returns the adapter name for logging purposes.
func (FixtureMemorySource) Name() string { return "fixture" }

// Read returns the fixture snapshot.
func (FixtureMemorySource) Read(_ context.Context) (metrics.MemorySnapshot, error) {
	return FixtureMemory(), nil
}

// FixtureProcessSource serves FixtureProcesses.
type FixtureProcessSource struct{}

// Name returns the adapter name for logging purposes.
func (FixtureProcessSource) Name() string { return "fixture" }

// Read returns the fixture process list.
func (FixtureProcessSource) Read(_ context.Context, limit int) ([]metrics.ProcessSample, error) {
	return FixtureProcesses(limit), nil
}
