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

package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder values substituted for optional fields.
const (
	DefaultSummary = "No summary available"
	DefaultText    = "N/A"
	UnknownProcess = "Unknown"
)

// ErrMalformed means a classifier payload did not match the report contract.
var ErrMalformed = errors.New("malformed classification payload")

// Item is one process entry inside a priority tier.
type Item struct {
	Process  string  `json:"process"`
	PID      *int    `json:"pid,omitempty"`
	MemoryMB float64 `json:"memory_mb"`
	Reason   string  `json:"reason"`
	Action   string  `json:"action"`
	Command  string  `json:"command,omitempty"`
}

// Report is the classifier output contract.
type Report struct {
	Summary            string  `json:"summary"`
	HighPriority       []Item  `json:"high_priority"`
	MediumPriority     []Item  `json:"medium_priority"`
	SafeToIgnore       []Item  `json:"safe_to_ignore"`
	TotalReclaimableMB float64 `json:"total_reclaimable_mb"`
}

// wireItem mirrors Item with pointer fields so absent keys can be told apart from zero values.
type wireItem struct {
	Process  *string         `json:"process"`
	PID      json.RawMessage `json:"pid"`
	MemoryMB *float64        `json:"memory_mb"`
	Reason   *string         `json:"reason"`
	Action   *string         `json:"action"`
	Command  *string         `json:"command"`
}

type wireReport struct {
	Summary            *string    `json:"summary"`
	HighPriority       []wireItem `json:"high_priority"`
	MediumPriority     []wireItem `json:"medium_priority"`
	SafeToIgnore       []wireItem `json:"safe_to_ignore"`
	TotalReclaimableMB *float64   `json:"total_reclaimable_mb"`
}

// Decode parses and validates a classifier payload.
// Every item must carry process and memory_mb; other fields fall back to defaults,
// and a pid that is not a positive integer is dropped.
// Errors wrap ErrMalformed.
func Decode(payload []byte) (*Report, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformed)
	}

	var wire wireReport
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	report := &Report{Summary: DefaultSummary}
	if wire.Summary != nil && strings.TrimSpace(*wire.Summary) != "" {
		report.Summary = *wire.Summary
	}

	if wire.TotalReclaimableMB != nil {
		if *wire.TotalReclaimableMB < 0 || math.IsNaN(*wire.TotalReclaimableMB) {
			return nil, fmt.Errorf("%w: total_reclaimable_mb must be non-negative", ErrMalformed)
		}
		report.TotalReclaimableMB = *wire.TotalReclaimableMB
	}

	var err error
	if report.HighPriority, err = decodeTier("high_priority", wire.HighPriority); err != nil {
		return nil, err
	}
	if report.MediumPriority, err = decodeTier("medium_priority", wire.MediumPriority); err != nil {
		return nil, err
	}
	if report.SafeToIgnore, err = decodeTier("safe_to_ignore", wire.SafeToIgnore); err != nil {
		return nil, err
	}

	return report, nil
}

func decodeTier(tier string, items []wireItem) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for i, w := range items {
		if w.Process == nil {
			return nil, fmt.Errorf("%w: %s[%d] missing process", ErrMalformed, tier, i)
		}
		if w.MemoryMB == nil {
			return nil, fmt.Errorf("%w: %s[%d] missing memory_mb", ErrMalformed, tier, i)
		}
		if *w.MemoryMB < 0 {
			return nil, fmt.Errorf("%w: %s[%d] memory_mb must be non-negative", ErrMalformed, tier, i)
		}

		item := Item{
			Process:  *w.Process,
			MemoryMB: *w.MemoryMB,
			Reason:   deref(w.Reason),
			Action:   deref(w.Action),
			Command:  strings.TrimSpace(deref(w.Command)),
		}
		item.PID = lenientPID(w.PID)
		out = append(out, item.withDefaults())
	}
	return out, nil
}

// lenientPID accepts a positive integral pid written as a number or a quoted
// number, such as 1234, 1234.0 or "1234". Anything else is dropped.
func lenientPID(raw json.RawMessage) *int {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	pid := int(f)
	return &pid
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// withDefaults replaces blank fields with their placeholders.
func (it Item) withDefaults() Item {
	if strings.TrimSpace(it.Process) == "" {
		it.Process = UnknownProcess
	}
	if strings.TrimSpace(it.Reason) == "" {
		it.Reason = DefaultText
	}
	if strings.TrimSpace(it.Action) == "" {
		it.Action = DefaultText
	}
	if it.MemoryMB < 0 {
		it.MemoryMB = 0
	}
	return it
}

// Normalized returns a copy of r with placeholders applied everywhere,
// so reports built in code render the same way as decoded ones.
func (r *Report) Normalized() Report {
	out := Report{
		Summary:            r.Summary,
		HighPriority:       normalizeTier(r.HighPriority),
		MediumPriority:     normalizeTier(r.MediumPriority),
		SafeToIgnore:       normalizeTier(r.SafeToIgnore),
		TotalReclaimableMB: r.TotalReclaimableMB,
	}
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = DefaultSummary
	}
	if out.TotalReclaimableMB < 0 {
		out.TotalReclaimableMB = 0
	}
	return out
}

func normalizeTier(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.withDefaults())
	}
	return out
}

// Counts returns the number of items in each tier.
func (r *Report) Counts() (high, medium, safe int) {
	return len(r.HighPriority), len(r.MediumPriority), len(r.SafeToIgnore)
}
