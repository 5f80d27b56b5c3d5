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

// MemorySnapshot represents host memory at one sampling point, normalized to megabytes.
// Use NewMemorySnapshot to build one so the derived fields stay consistent.
type MemorySnapshot struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
	Fallback    bool    `json:"fallback,omitempty"` // Placeholder values, not a live reading
}

// ProcessSample represents a single process observed during a sampling cycle.
type ProcessSample struct {
	PID              int     `json:"pid"`
	Name             string  `json:"name"`               // Executable basename
	User             string  `json:"user"`               // Owning user as reported by the process table
	ResidentMemoryMB float64 `json:"resident_memory_mb"` // Resident set size in megabytes
	Command          string  `json:"command"`            // Bounded to MaxCommandLength characters
}

// Status is the health band derived from memory utilization.
type Status string

// Health bands, ordered from worst to best.
const (
	StatusCritical Status = "CRITICAL"
	StatusWarning  Status = "WARNING"
	StatusHealthy  Status = "HEALTHY"
)

// Thresholds and bounds shared by the sampling and rendering layers.
const (
	CriticalThreshold = 80.0 // used_percent at or above is CRITICAL
	WarningThreshold  = 60.0 // used_percent at or above is WARNING

	MaxCommandLength   = 100 // Characters kept from a process command line
	UnknownProcessName = "unknown"

	bytesPerMB = 1024 * 1024
)
