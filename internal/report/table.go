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
	"fmt"
	"io"
	"strings"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// DefaultTableRows is the number of processes shown in the unclassified table.
const DefaultTableRows = 15

// tableCommandWidth bounds the COMMAND column.
const tableCommandWidth = 40

// Unclassified is the JSON form of an observation without a classification.
type Unclassified struct {
	Memory     metrics.MemorySnapshot  `json:"memory"`
	Processes  []metrics.ProcessSample `json:"processes"`
	Classified bool                    `json:"classified"`
	Degraded   bool                    `json:"degraded,omitempty"`
}

// RenderProcessTable writes the ranked process listing used when no
// classification is available. degraded marks placeholder data in the JSON form.
func (r *Renderer) RenderProcessTable(w io.Writer, snapshot metrics.MemorySnapshot, processes []metrics.ProcessSample, degraded bool, format Format) error {
	if processes == nil {
		processes = []metrics.ProcessSample{}
	}

	if format == FormatJSON {
		return writeJSON(w, Unclassified{
			Memory:     snapshot,
			Processes:  processes,
			Classified: false,
			Degraded:   degraded,
		})
	}

	var sb strings.Builder
	if r.opts.Demo || len(r.opts.Notes) > 0 {
		r.writeHeader(&sb)
	}

	fmt.Fprintf(&sb, "\nMemory: %.1f/%.1f MB (%.1f%%)\n\n", snapshot.UsedMB, snapshot.TotalMB, snapshot.UsedPercent)
	sb.WriteString(r.styles.Label.Render(fmt.Sprintf("%-8s %-12s %-12s %s", "PID", "USER", "MEMORY", "COMMAND")) + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")

	for i, p := range processes {
		if i == r.opts.TableRows {
			break
		}
		fmt.Fprintf(&sb, "%-8d %-12s %-12s %s\n",
			p.PID,
			p.User,
			metrics.FormatMB(p.ResidentMemoryMB),
			metrics.TruncateCommand(p.Command, tableCommandWidth),
		)
	}
	if len(processes) == 0 {
		sb.WriteString("(no processes)\n")
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
