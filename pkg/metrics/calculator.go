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

package metrics

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"
)

// NewMemorySnapshot builds a snapshot from raw megabyte values.
// Negative inputs are clamped to zero and used memory never exceeds total.
func NewMemorySnapshot(totalMB, usedMB, freeMB float64) MemorySnapshot {
	totalMB = nonNegative(totalMB)
	usedMB = nonNegative(usedMB)
	freeMB = nonNegative(freeMB)

	if usedMB > totalMB {
		usedMB = totalMB
	}

	return MemorySnapshot{
		TotalMB:     totalMB,
		UsedMB:      usedMB,
		FreeMB:      freeMB,
		UsedPercent: CalculateUsedPercent(usedMB, totalMB),
	}
}

// CalculateUsedPercent returns used/total as a percentage.
// Formula: (Used / Total) × 100, defined as 0 when total is zero.
func CalculateUsedPercent(usedMB, totalMB float64) float64 {
	if totalMB <= 0 {
		return 0.0
	}
	return (usedMB / totalMB) * 100.0
}

// StatusFor maps a utilization percentage to its health band.
// The first matching threshold wins.
func StatusFor(usedPercent float64) Status {
	switch {
	case usedPercent >= CriticalThreshold:
		return StatusCritical
	case usedPercent >= WarningThreshold:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// Status returns the health band of the snapshot.
func (s MemorySnapshot) Status() Status {
	return StatusFor(s.UsedPercent)
}

// FormatMB renders a megabyte value with one fractional digit,
// switching to gigabytes at 1024 MB.
func FormatMB(mb float64) string {
	if mb < 1024 {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", mb/1024)
}

// BytesToMB converts a byte count to megabytes.
func BytesToMB(bytes float64) float64 {
	return bytes / bytesPerMB
}

// KBToMB converts a kibibyte count (the unit used by ps RSS and /proc/meminfo) to megabytes.
func KBToMB(kb float64) float64 {
	return kb / 1024
}

// NewProcessSample builds a sample. The name comes from the full command line,
// before the stored command is bounded.
func NewProcessSample(pid int, user string, rssMB float64, command string) ProcessSample {
	full := strings.TrimSpace(command)
	cmd := TruncateCommand(full, MaxCommandLength)
	return ProcessSample{
		PID:              pid,
		Name:             ProcessName(full),
		User:             user,
		ResidentMemoryMB: nonNegative(rssMB),
		Command:          cmd,
	}
}

// ProcessName returns the basename of the first whitespace-delimited token of a command line.
func ProcessName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return UnknownProcessName
	}
	return path.Base(fields[0])
}

// TruncateCommand keeps at most limit characters of s.
func TruncateCommand(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// RankByResidentMemory sorts samples in place by descending resident memory
// and returns at most limit of them. A non-positive limit keeps everything.
func RankByResidentMemory(samples []ProcessSample, limit int) []ProcessSample {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].ResidentMemoryMB > samples[j].ResidentMemoryMB
	})

	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	return samples
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
