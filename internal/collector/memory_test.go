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
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner returns canned output per command name.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	out, ok := f.outputs[name]
	if !ok {
		return nil, errors.New("unexpected command " + name)
	}
	return []byte(out), nil
}

const meminfoSample = `MemTotal:       16384000 kB
MemFree:         1024000 kB
MemAvailable:    4096000 kB
Buffers:          512000 kB
Cached:          2048000 kB
SwapCached:            0 kB
`

const vmStatSample = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                              100000.
Pages active:                            300000.
Pages inactive:                          200000.
Pages speculative:                        50000.
Pages throttled:                              0.
Pages wired down:                        150000.
Pages purgeable:                          12345.
`

const sixteenGiB = 16 * 1024 * 1024 * 1024

func TestParseMeminfo(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTotal   float64
		wantUsed    float64
		wantPercent float64
		wantKind    Kind
	}{
		{
			name:        "MemAvailable present",
			input:       meminfoSample,
			wantTotal:   16000,
			wantUsed:    12000,
			wantPercent: 75,
		},
		{
			name: "Older kernel without MemAvailable",
			input: `MemTotal:        8192000 kB
MemFree:         1024000 kB
Buffers:          512000 kB
Cached:          1536000 kB
`,
			wantTotal:   8000,
			wantUsed:    5000,
			wantPercent: 62.5,
		},
		{
			name:        "Missing MemTotal",
			input:       "MemFree: 1024 kB\nMemAvailable: 2048 kB\n",
			wantTotal:   0,
			wantUsed:    0,
			wantPercent: 0,
		},
		{
			name:     "No recognized keys",
			input:    "SwapTotal: 1024 kB\nbogus line\n",
			wantKind: KindParse,
		},
		{
			name:     "Non-numeric value",
			input:    "MemTotal: lots kB\n",
			wantKind: KindParse,
		},
		{
			name:     "Empty input",
			input:    "",
			wantKind: KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeminfo([]byte(tt.input))
			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("ParseMeminfo() expected error, got %+v", got)
				}
				if KindOf(err) != tt.wantKind {
					t.Errorf("KindOf(err) = %q, want %q", KindOf(err), tt.wantKind)
				}
				if !errors.Is(err, ErrSourceParse) {
					t.Errorf("errors.Is(err, ErrSourceParse) = false for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMeminfo() error = %v", err)
			}
			if math.Abs(got.TotalMB-tt.wantTotal) > 0.001 {
				t.Errorf("TotalMB = %v, want %v", got.TotalMB, tt.wantTotal)
			}
			if math.Abs(got.UsedMB-tt.wantUsed) > 0.001 {
				t.Errorf("UsedMB = %v, want %v", got.UsedMB, tt.wantUsed)
			}
			if math.Abs(got.UsedPercent-tt.wantPercent) > 0.001 {
				t.Errorf("UsedPercent = %v, want %v", got.UsedPercent, tt.wantPercent)
			}
			if got.UsedMB > got.TotalMB {
				t.Errorf("UsedMB %v exceeds TotalMB %v", got.UsedMB, got.TotalMB)
			}
		})
	}
}

func TestParseMeminfo_OffendingLineReported(t *testing.T) {
	_, err := ParseMeminfo([]byte("MemTotal: 100 kB\nMemAvailable: abc kB\n"))
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}
	if se.Line != "MemAvailable: abc kB" {
		t.Errorf("Line = %q, want offending line", se.Line)
	}
}

func TestMeminfoSource_Read(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "wamr_meminfo")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			t.Logf("Failed to remove temp dir: %v", err)
		}
	}()

	path := filepath.Join(tempDir, "meminfo")
	if err := os.WriteFile(path, []byte(meminfoSample), 0o644); err != nil {
		t.Fatal(err)
	}

	snapshot, err := NewMeminfoSource(path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if math.Abs(snapshot.UsedPercent-75) > 0.001 {
		t.Errorf("UsedPercent = %v, want 75", snapshot.UsedPercent)
	}

	_, err = NewMeminfoSource(filepath.Join(tempDir, "missing")).Read(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("missing file: error = %v, want ErrSourceUnavailable", err)
	}
}

func TestParseVMStat(t *testing.T) {
	got, err := ParseVMStat([]byte(vmStatSample), sixteenGiB)
	if err != nil {
		t.Fatalf("ParseVMStat() error = %v", err)
	}

	// 16384-byte pages are 1/64 MB each.
	wantUsed := (300000.0 + 150000.0) / 64
	wantFree := (100000.0 + 50000.0 + 200000.0) / 64

	if math.Abs(got.TotalMB-16384) > 0.001 {
		t.Errorf("TotalMB = %v, want 16384", got.TotalMB)
	}
	if math.Abs(got.UsedMB-wantUsed) > 0.001 {
		t.Errorf("UsedMB = %v, want %v", got.UsedMB, wantUsed)
	}
	if math.Abs(got.FreeMB-wantFree) > 0.001 {
		t.Errorf("FreeMB = %v, want %v (inactive counted as free)", got.FreeMB, wantFree)
	}
	wantPercent := wantUsed / 16384 * 100
	if math.Abs(got.UsedPercent-wantPercent) > 0.001 {
		t.Errorf("UsedPercent = %v, want %v", got.UsedPercent, wantPercent)
	}
}

func TestParseVMStat_PageSizeScaling(t *testing.T) {
	body := vmStatSample[strings.Index(vmStatSample, "\n")+1:]

	large, err := ParseVMStat([]byte(vmStatSample), sixteenGiB)
	if err != nil {
		t.Fatal(err)
	}
	small, err := ParseVMStat([]byte("Mach Virtual Memory Statistics: (page size of 4096 bytes)\n"+body), sixteenGiB)
	if err != nil {
		t.Fatal(err)
	}
	defaulted, err := ParseVMStat([]byte(body), sixteenGiB)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(large.UsedMB-4*small.UsedMB) > 0.001 {
		t.Errorf("used did not scale with page size: 16K=%v 4K=%v", large.UsedMB, small.UsedMB)
	}
	if large.TotalMB != small.TotalMB {
		t.Errorf("total changed with page size: %v vs %v", large.TotalMB, small.TotalMB)
	}
	if math.Abs(defaulted.UsedMB-small.UsedMB) > 0.001 {
		t.Errorf("missing header should assume %d-byte pages: got %v, want %v", DefaultPageSize, defaulted.UsedMB, small.UsedMB)
	}
}

func TestParseVMStat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "No counters", input: "Mach Virtual Memory Statistics: (page size of 4096 bytes)\n"},
		{name: "Non-numeric count", input: "Pages free: many.\n"},
		{name: "Unreadable page size", input: "Mach Virtual Memory Statistics: (page size of ? bytes)\nPages free: 1.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVMStat([]byte(tt.input), sixteenGiB)
			if KindOf(err) != KindParse {
				t.Errorf("ParseVMStat() error = %v, want parse kind", err)
			}
		})
	}
}

func TestVMStatSource_Read(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"vm_stat": vmStatSample,
		"sysctl":  "17179869184\n",
	}}

	source := NewVMStatSource(runner, SysctlCapacity(runner))
	got, err := source.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if math.Abs(got.TotalMB-16384) > 0.001 {
		t.Errorf("TotalMB = %v, want 16384", got.TotalMB)
	}
	if len(runner.calls) != 2 || runner.calls[1] != "sysctl -n hw.memsize" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestVMStatSource_CapacityError(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"vm_stat": vmStatSample}}
	failing := func(context.Context) (uint64, error) { return 0, errors.New("boom") }

	_, err := NewVMStatSource(runner, failing).Read(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Read() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestVMStatSource_CommandMissing(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"vm_stat": os.ErrNotExist}}
	capacity := func(context.Context) (uint64, error) { return sixteenGiB, nil }

	_, err := NewVMStatSource(runner, capacity).Read(context.Background())
	if KindOf(err) != KindUnavailable {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindUnavailable)
	}
}

func TestFirstCapacity(t *testing.T) {
	fail := func(context.Context) (uint64, error) { return 0, unavailable("a", errors.New("nope")) }
	ok := func(context.Context) (uint64, error) { return 42, nil }

	got, err := FirstCapacity(fail, ok)(context.Background())
	if err != nil || got != 42 {
		t.Errorf("FirstCapacity(fail, ok) = %v, %v; want 42, nil", got, err)
	}

	_, err = FirstCapacity(fail, fail)(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("FirstCapacity(fail, fail) error = %v, want ErrSourceUnavailable", err)
	}
}

func TestUnsupportedMemorySource(t *testing.T) {
	_, err := NewMemorySource(Platform("plan9"), &fakeRunner{}).Read(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
}
