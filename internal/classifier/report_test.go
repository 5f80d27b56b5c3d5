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
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestDecode_Fixture(t *testing.T) {
	report, err := Decode([]byte(FixturePayload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	high, medium, safe := report.Counts()
	if high != 2 || medium != 1 || safe != 3 {
		t.Errorf("Counts() = %d/%d/%d, want 2/1/3", high, medium, safe)
	}
	chrome := report.HighPriority[0]
	if chrome.Process != "chrome" || chrome.PID == nil || *chrome.PID != 12091 {
		t.Errorf("first high item = %+v", chrome)
	}
	if math.Abs(chrome.MemoryMB-3276.8) > 0.001 {
		t.Errorf("MemoryMB = %v, want 3276.8", chrome.MemoryMB)
	}
	if math.Abs(report.TotalReclaimableMB-3900) > 0.001 {
		t.Errorf("TotalReclaimableMB = %v, want 3900", report.TotalReclaimableMB)
	}
	if report.SafeToIgnore[0].Command != "" {
		t.Errorf("absent command should stay empty, got %q", report.SafeToIgnore[0].Command)
	}
}

func TestDecode_Defaults(t *testing.T) {
	payload := `{"high_priority": [{"process": "", "memory_mb": 10}], "safe_to_ignore": [{"process": "x", "memory_mb": 0, "pid": null}]}`
	report, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if report.Summary != DefaultSummary {
		t.Errorf("Summary = %q, want %q", report.Summary, DefaultSummary)
	}
	if report.TotalReclaimableMB != 0 {
		t.Errorf("TotalReclaimableMB = %v, want 0 when absent", report.TotalReclaimableMB)
	}
	item := report.HighPriority[0]
	if item.Process != UnknownProcess || item.Reason != DefaultText || item.Action != DefaultText || item.PID != nil {
		t.Errorf("item = %+v, want defaults", item)
	}
	if report.MediumPriority == nil {
		t.Error("absent tier should decode to an empty, non-nil slice")
	}

	out, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatal(err)
	}
	if tier, ok := generic["medium_priority"].([]any); !ok || len(tier) != 0 {
		t.Errorf("medium_priority = %v, want []", generic["medium_priority"])
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "Not JSON", payload: "Sure! Here is the analysis you asked for."},
		{name: "Empty", payload: ""},
		{name: "Null", payload: "null"},
		{name: "Array", payload: `[{"process": "a", "memory_mb": 1}]`},
		{name: "Truncated", payload: `{"summary": "ok", "high_priority": [`},
		{name: "Missing process", payload: `{"high_priority": [{"memory_mb": 1}]}`},
		{name: "Missing memory", payload: `{"medium_priority": [{"process": "a"}]}`},
		{name: "Wrong type", payload: `{"high_priority": [{"process": "a", "memory_mb": "lots"}]}`},
		{name: "Negative memory", payload: `{"high_priority": [{"process": "a", "memory_mb": -1}]}`},
		{name: "Negative reclaimable", payload: `{"total_reclaimable_mb": -5}`},
		{name: "Trailing text", payload: `{"summary": "ok"} and more`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Decode([]byte(tt.payload))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode() error = %v, want ErrMalformed", err)
			}
			if report != nil {
				t.Errorf("Decode() report = %+v, want nil", report)
			}
		})
	}
}

func TestReport_Normalized(t *testing.T) {
	r := &Report{
		HighPriority:       []Item{{MemoryMB: -3}},
		TotalReclaimableMB: -1,
	}
	got := r.Normalized()

	if got.Summary != DefaultSummary || got.TotalReclaimableMB != 0 {
		t.Errorf("Normalized() = %+v", got)
	}
	if got.HighPriority[0].Process != UnknownProcess || got.HighPriority[0].MemoryMB != 0 {
		t.Errorf("item = %+v", got.HighPriority[0])
	}
	if got.SafeToIgnore == nil {
		t.Error("SafeToIgnore should be empty, not nil")
	}
}

func TestDecode_LenientPID(t *testing.T) {
	tests := []struct {
		name string
		pid  string
		want int // 0 means dropped
	}{
		{name: "Integer", pid: `1234`, want: 1234},
		{name: "Integral float", pid: `1234.0`, want: 1234},
		{name: "Quoted integer", pid: `"1234"`, want: 1234},
		{name: "Fractional", pid: `12.5`, want: 0},
		{name: "Text", pid: `"chrome"`, want: 0},
		{name: "Zero", pid: `0`, want: 0},
		{name: "Negative", pid: `-7`, want: 0},
		{name: "Boolean", pid: `true`, want: 0},
		{name: "Object", pid: `{"id": 3}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"high_priority": [{"process": "chrome", "memory_mb": 100, "pid": ` + tt.pid + `}]}`
			report, err := Decode([]byte(payload))
			if err != nil {
				t.Fatalf("Decode() error = %v, an odd pid must not reject the report", err)
			}
			got := report.HighPriority[0].PID
			switch {
			case tt.want == 0 && got != nil:
				t.Errorf("PID = %d, want dropped", *got)
			case tt.want != 0 && (got == nil || *got != tt.want):
				t.Errorf("PID = %v, want %d", got, tt.want)
			}
		})
	}
}
