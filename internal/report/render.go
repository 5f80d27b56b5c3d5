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

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phuonguno98/wamr/internal/classifier"
	"github.com/phuonguno98/wamr/pkg/metrics"
)

// Format selects the rendering.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ErrNoReport is returned when Render is called without a classification.
var ErrNoReport = errors.New("no classification report to render")

const (
	ruleWidth = 70
	title     = "WhoAteMyRAM - Memory Analysis"
)

// Options configures a Renderer.
type Options struct {
	Color     bool
	Demo      bool     // Mark the header as demo output
	TableRows int      // Rows shown by RenderProcessTable
	Notes     []string // Degraded-data notices printed under the header
}

// degradedReport is the JSON report plus markers for fallback input data.
type degradedReport struct {
	classifier.Report
	Degraded bool     `json:"degraded"`
	Notes    []string `json:"notes"`
}

// Renderer turns reports and observations into text or JSON.
type Renderer struct {
	styles Styles
	opts   Options
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.TableRows <= 0 {
		opts.TableRows = DefaultTableRows
	}
	return &Renderer{styles: NewStyles(opts.Color), opts: opts}
}

// Render writes a classified report. The JSON form is the defaulted report as-is,
// with top-level degraded and notes fields added when notes are set.
func (r *Renderer) Render(w io.Writer, report *classifier.Report, snapshot metrics.MemorySnapshot, format Format) error {
	if report == nil {
		return ErrNoReport
	}
	normalized := report.Normalized()

	if format == FormatJSON {
		if len(r.opts.Notes) > 0 {
			return writeJSON(w, degradedReport{Report: normalized, Degraded: true, Notes: r.opts.Notes})
		}
		return writeJSON(w, normalized)
	}

	var sb strings.Builder
	r.writeHeader(&sb)
	sb.WriteString("\n" + r.statusLine(snapshot) + "\n")
	fmt.Fprintf(&sb, "\n%s %s\n", r.styles.Label.Render("Summary:"), normalized.Summary)

	r.writeTier(&sb, r.styles.High.Render(fmt.Sprintf("HIGH PRIORITY (%d issues)", len(normalized.HighPriority))), normalized.HighPriority)
	r.writeTier(&sb, r.styles.Medium.Render(fmt.Sprintf("MEDIUM PRIORITY (%d issues)", len(normalized.MediumPriority))), normalized.MediumPriority)

	if len(normalized.SafeToIgnore) > 0 {
		sb.WriteString("\n" + r.styles.Safe.Render(fmt.Sprintf("SAFE TO IGNORE (%d processes)", len(normalized.SafeToIgnore))) + "\n")
		sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		for _, item := range normalized.SafeToIgnore {
			fmt.Fprintf(&sb, "• %s - %s\n", itemHeading(item), item.Reason)
		}
	}

	if normalized.TotalReclaimableMB > 0 {
		fmt.Fprintf(&sb, "\n%s ~%s\n", r.styles.Label.Render("Total Reclaimable:"), metrics.FormatMB(normalized.TotalReclaimableMB))
	}

	sb.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) writeHeader(sb *strings.Builder) {
	heading := title
	if r.opts.Demo {
		heading += " [DEMO MODE]"
	}
	sb.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString(r.styles.Title.Render(heading) + "\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	r.writeNotes(sb)
}

func (r *Renderer) writeNotes(sb *strings.Builder) {
	for _, note := range r.opts.Notes {
		sb.WriteString(r.styles.Note.Render("NOTE: "+note) + "\n")
	}
}

// statusLine renders e.g. "WARNING - 73.2% used (11.7 GB / 16.0 GB)".
func (r *Renderer) statusLine(snapshot metrics.MemorySnapshot) string {
	status := snapshot.Status()
	style := r.styles.Healthy
	switch status {
	case metrics.StatusCritical:
		style = r.styles.Critical
	case metrics.StatusWarning:
		style = r.styles.Warning
	}

	return fmt.Sprintf("%s - %.1f%% used (%s / %s)",
		style.Render(string(status)),
		snapshot.UsedPercent,
		metrics.FormatMB(snapshot.UsedMB),
		metrics.FormatMB(snapshot.TotalMB),
	)
}

func (r *Renderer) writeTier(sb *strings.Builder, heading string, items []classifier.Item) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + heading + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, item := range items {
		fmt.Fprintf(sb, "\n• %s\n", itemHeading(item))
		fmt.Fprintf(sb, "  Reason: %s\n", item.Reason)
		fmt.Fprintf(sb, "  Action: %s\n", item.Action)
		if item.Command != "" {
			fmt.Fprintf(sb, "  %s %s\n", r.styles.Muted.Render("Command:"), item.Command)
		}
	}
}

// itemHeading renders "chrome (PID 12091) - 3.2 GB", omitting the PID when absent.
func itemHeading(item classifier.Item) string {
	if item.PID != nil {
		return fmt.Sprintf("%s (PID %d) - %s", item.Process, *item.PID, metrics.FormatMB(item.MemoryMB))
	}
	return fmt.Sprintf("%s - %s", item.Process, metrics.FormatMB(item.MemoryMB))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
