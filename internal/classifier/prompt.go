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
	"fmt"
	"strings"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// PromptProcessLimit is the number of ranked processes described in the prompt.
const PromptProcessLimit = 10

const contractInstruction = `
Analyze this memory usage and provide:
1. Identify which processes are suspicious or unusual
2. Suggest which processes can be safely reduced/killed
3. Detect any potential memory leaks
4. Provide actionable recommendations

Respond in JSON format with this structure:
{
  "summary": "brief overall assessment",
  "high_priority": [
    {
      "process": "name",
      "pid": 1234,
      "memory_mb": 100.0,
      "reason": "why this is concerning",
      "action": "what to do",
      "command": "actual shell command to fix it (optional)"
    }
  ],
  "medium_priority": [...same structure...],
  "safe_to_ignore": [...same structure...],
  "total_reclaimable_mb": 1234.5
}

Only return valid JSON, no other text.
`

// BuildPrompt describes the snapshot and the top processes, followed by the report contract.
// The output depends only on its inputs.
func BuildPrompt(platform string, snapshot metrics.MemorySnapshot, processes []metrics.ProcessSample) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a system administrator analyzing memory usage on a %s system.\n\n", platformLabel(platform))

	sb.WriteString("SYSTEM MEMORY:\n")
	fmt.Fprintf(&sb, "- Total: %.1f MB\n", snapshot.TotalMB)
	fmt.Fprintf(&sb, "- Used: %.1f MB (%.1f%%)\n", snapshot.UsedMB, snapshot.UsedPercent)
	fmt.Fprintf(&sb, "- Free: %.1f MB\n\n", snapshot.FreeMB)

	sb.WriteString("TOP MEMORY CONSUMERS:\n")
	for i, p := range processes {
		if i == PromptProcessLimit {
			break
		}
		fmt.Fprintf(&sb, "%d. %s (PID %d) - %.1f MB - User: %s\n", i+1, p.Name, p.PID, p.ResidentMemoryMB, p.User)
		fmt.Fprintf(&sb, "   Command: %s\n", p.Command)
	}

	sb.WriteString(contractInstruction)
	return sb.String()
}

func platformLabel(platform string) string {
	switch platform {
	case "linux":
		return "Linux"
	case "darwin":
		return "macOS"
	case "":
		return "Unix-like"
	default:
		return platform
	}
}
