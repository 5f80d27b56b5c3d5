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
	"context"
	"net/http"
)

// FixturePayload is the literal classification used in demo mode.
const FixturePayload = `{
  "summary": "System is experiencing high memory usage at 73% with multiple browser instances and development tools. Several optimization opportunities identified.",
  "high_priority": [
    {
      "process": "chrome",
      "pid": 12091,
      "memory_mb": 3276.8,
      "reason": "Multiple instances with 47 total tabs, 28 idle for >2 hours consuming excessive memory",
      "action": "Close idle tabs or restart Chrome to reclaim memory",
      "command": "chrome://discards (visit in browser to see discardable tabs)"
    },
    {
      "process": "docker-compose",
      "pid": 8432,
      "memory_mb": 2150.4,
      "reason": "Containers from 'old-project' haven't been accessed in 14 days",
      "action": "Stop unused containers to free memory",
      "command": "docker ps -a | grep old-project && docker-compose down"
    }
  ],
  "medium_priority": [
    {
      "process": "code",
      "pid": 15678,
      "memory_mb": 1024.5,
      "reason": "VS Code with 8 workspace folders loaded simultaneously",
      "action": "Close unused workspaces to reduce memory footprint",
      "command": "Close workspace folders in VS Code: File > Close Folder"
    }
  ],
  "safe_to_ignore": [
    {
      "process": "node",
      "pid": 14233,
      "memory_mb": 1482.3,
      "reason": "Active webpack dev server for current project - legitimate development usage",
      "action": "This is expected memory usage for active development"
    },
    {
      "process": "ollama",
      "pid": 9876,
      "memory_mb": 1150.0,
      "reason": "Currently running this memory analysis",
      "action": "Will be freed after analysis completes"
    },
    {
      "process": "slack",
      "pid": 7654,
      "memory_mb": 856.2,
      "reason": "Active messaging client with normal memory usage for Electron app",
      "action": "Restart if memory grows significantly higher"
    }
  ],
  "total_reclaimable_mb": 3900.0
}`

// FixtureClient answers every request with a fixed payload.
type FixtureClient struct {
	Payload string
}

// NewFixtureClient returns a client serving FixturePayload.
func NewFixtureClient() *FixtureClient {
	return &FixtureClient{Payload: FixturePayload}
}

// Generate returns the fixed payload.
func (c *FixtureClient) Generate(ctx context.Context, _ GenerateRequest) (GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return GenerateResponse{}, err
	}
	return GenerateResponse{Status: http.StatusOK, Text: c.Payload}, nil
}
