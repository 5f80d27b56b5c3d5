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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// MemorySource reads OS memory accounting and normalizes it into a snapshot.
type MemorySource interface {
	Read(ctx context.Context) (metrics.MemorySnapshot, error)
	Name() string
}

// DefaultMeminfoPath is the key-value accounting file read on Linux.
const DefaultMeminfoPath = "/proc/meminfo"

// DefaultPageSize is assumed when vm_stat output carries no page size header.
const DefaultPageSize = 4096

// CountInactiveAsFree controls where vm_stat inactive pages are accounted.
// Inactive pages are reclaimable, so they are reported as free rather than used.
// Downstream reclaimable estimates rely on this; it is not strict kernel accounting.
const CountInactiveAsFree = true

const (
	sourceMeminfo = "meminfo"
	sourceVMStat  = "vm_stat"
)

// MeminfoSource reads the Linux key-value accounting file.
type MeminfoSource struct {
	path     string
	readFile readFile
}

// NewMeminfoSource creates a source reading path (DefaultMeminfoPath when empty).
func NewMeminfoSource(path string) *MeminfoSource {
	if path == "" {
		path = DefaultMeminfoPath
	}
	return &MeminfoSource{path: path, readFile: osReadFile}
}

// Name returns the adapter name for logging purposes.
func (s *MeminfoSource) Name() string {
	return sourceMeminfo
}

// Read gathers the current memory snapshot.
func (s *MeminfoSource) Read(_ context.Context) (metrics.MemorySnapshot, error) {
	data, err := s.readFile(s.path)
	if err != nil {
		return metrics.MemorySnapshot{}, unavailable(sourceMeminfo, fmt.Errorf("failed to read %s: %w", s.path, err))
	}
	return ParseMeminfo(data)
}

// meminfoRecord holds the only meminfo keys the snapshot needs, in kB.
type meminfoRecord struct {
	total, free, available, buffers, cached float64
	hasAvailable                            bool
	matched                                 int
}

func (r *meminfoRecord) field(key string) *float64 {
	switch key {
	case "MemTotal":
		return &r.total
	case "MemFree":
		return &r.free
	case "MemAvailable":
		r.hasAvailable = true
		return &r.available
	case "Buffers":
		return &r.buffers
	case "Cached":
		return &r.cached
	}
	return nil
}

// ParseMeminfo converts "Key:   value kB" lines into a snapshot.
// Used memory is MemTotal - MemAvailable; kernels without MemAvailable
// fall back to MemFree + Buffers + Cached as the available estimate.
// A missing MemTotal reads as zero total, so the snapshot reports 0% used.
func ParseMeminfo(data []byte) (metrics.MemorySnapshot, error) {
	var rec meminfoRecord

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		target := rec.field(strings.TrimSpace(key))
		if target == nil {
			continue
		}

		n, err := leadingNumber(value)
		if err != nil {
			return metrics.MemorySnapshot{}, parseError(sourceMeminfo, line, err)
		}
		*target = n
		rec.matched++
	}
	if err := scanner.Err(); err != nil {
		return metrics.MemorySnapshot{}, parseError(sourceMeminfo, "", err)
	}

	if rec.matched == 0 {
		return metrics.MemorySnapshot{}, parseError(sourceMeminfo, "", errors.New("no meminfo keys found"))
	}

	available := rec.available
	if !rec.hasAvailable {
		available = rec.free + rec.buffers + rec.cached
	}

	totalMB := metrics.KBToMB(rec.total)
	freeMB := metrics.KBToMB(available)

	return metrics.NewMemorySnapshot(totalMB, totalMB-freeMB, freeMB), nil
}

// leadingNumber returns the first whitespace-delimited token of s as a number,
// dropping any trailing unit.
func leadingNumber(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errors.New("missing value")
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric value %q", fields[0])
	}
	return n, nil
}

// VMStatSource reads the page-accounting output of vm_stat.
type VMStatSource struct {
	runner   Runner
	capacity CapacityFunc
}

// NewVMStatSource creates a page-accounting source. capacity supplies total memory.
func NewVMStatSource(runner Runner, capacity CapacityFunc) *VMStatSource {
	return &VMStatSource{runner: runner, capacity: capacity}
}

// Name returns the adapter name for logging purposes.
func (s *VMStatSource) Name() string {
	return sourceVMStat
}

// Read gathers the current memory snapshot.
func (s *VMStatSource) Read(ctx context.Context) (metrics.MemorySnapshot, error) {
	out, err := s.runner.Run(ctx, "vm_stat")
	if err != nil {
		return metrics.MemorySnapshot{}, commandError(sourceVMStat, "vm_stat", err)
	}

	total, err := s.capacity(ctx)
	if err != nil {
		if KindOf(err) == "" {
			return metrics.MemorySnapshot{}, unavailable(sourceVMStat, err)
		}
		return metrics.MemorySnapshot{}, err
	}

	return ParseVMStat(out, total)
}

var pageSizeRegex = regexp.MustCompile(`(?i)page size of (\d+) bytes`)

// vmStatRecord holds the page counters the snapshot needs.
type vmStatRecord struct {
	pageSize                                   float64
	free, active, inactive, speculative, wired float64
	found                                      int
}

func (r *vmStatRecord) field(label string) *float64 {
	switch label {
	case "Pages free":
		return &r.free
	case "Pages active":
		return &r.active
	case "Pages inactive":
		return &r.inactive
	case "Pages speculative":
		return &r.speculative
	case "Pages wired down":
		return &r.wired
	}
	return nil
}

// ParseVMStat converts vm_stat output into a snapshot.
// totalBytes comes from a separate capacity query.
func ParseVMStat(data []byte, totalBytes uint64) (metrics.MemorySnapshot, error) {
	rec := vmStatRecord{pageSize: DefaultPageSize}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	first := true
	for scanner.Scan() {
		line := scanner.Text()

		if first {
			first = false
			if strings.Contains(strings.ToLower(line), "page size of") {
				m := pageSizeRegex.FindStringSubmatch(line)
				if m == nil {
					return metrics.MemorySnapshot{}, parseError(sourceVMStat, line, errors.New("unreadable page size"))
				}
				size, err := strconv.ParseFloat(m[1], 64)
				if err != nil || size <= 0 {
					return metrics.MemorySnapshot{}, parseError(sourceVMStat, line, errors.New("invalid page size"))
				}
				rec.pageSize = size
				continue
			}
		}

		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		target := rec.field(strings.TrimSpace(label))
		if target == nil {
			continue
		}

		count, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "."), 64)
		if err != nil {
			return metrics.MemorySnapshot{}, parseError(sourceVMStat, line, fmt.Errorf("non-numeric page count: %w", err))
		}
		*target = count
		rec.found++
	}
	if err := scanner.Err(); err != nil {
		return metrics.MemorySnapshot{}, parseError(sourceVMStat, "", err)
	}

	if rec.found == 0 {
		return metrics.MemorySnapshot{}, parseError(sourceVMStat, "", errors.New("no page counters found"))
	}

	freePages := rec.free + rec.speculative
	usedPages := rec.active + rec.wired
	if CountInactiveAsFree {
		freePages += rec.inactive
	} else {
		usedPages += rec.inactive
	}

	toMB := func(pages float64) float64 {
		return metrics.BytesToMB(pages * rec.pageSize)
	}

	return metrics.NewMemorySnapshot(metrics.BytesToMB(float64(totalBytes)), toMB(usedPages), toMB(freePages)), nil
}

// UnsupportedMemorySource is used for platforms without an accounting adapter.
type UnsupportedMemorySource struct {
	Platform Platform
}

// Name returns the adapter name for logging purposes.
func (s UnsupportedMemorySource) Name() string {
	return "unsupported"
}

// Read always reports the source as unavailable.
func (s UnsupportedMemorySource) Read(_ context.Context) (metrics.MemorySnapshot, error) {
	return metrics.MemorySnapshot{}, unavailable(s.Name(), fmt.Errorf("no memory accounting adapter for platform %q", s.Platform))
}
