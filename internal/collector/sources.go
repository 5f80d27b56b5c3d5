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
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// Dependency injection points for testing
var (
	lookPath        = exec.LookPath
	statFile        = os.Stat
	hostInfo        = host.InfoWithContext
	gopsutilMemSize = VirtualMemoryCapacity
)

// SourceInfo describes one accounting or listing mechanism for a platform.
type SourceInfo struct {
	Role      string // "memory", "capacity" or "process"
	Name      string // Adapter name
	Mechanism string // File path or command line
	Available bool
	Detail    string
}

// HostInfo is the short host banner printed above the sources table.
type HostInfo struct {
	Hostname string
	OS       string
	Platform string
	Kernel   string
}

// DescribeHost returns basic host facts. Errors are reported to the caller; the banner is optional.
func DescribeHost(ctx context.Context) (HostInfo, error) {
	info, err := hostInfo(ctx)
	if err != nil {
		return HostInfo{}, fmt.Errorf("failed to get host info: %w", err)
	}
	return HostInfo{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		Kernel:   info.KernelVersion,
	}, nil
}

// DescribeSources reports which mechanisms the adapters for p depend on and whether they are present.
// Capacity queries are listed in the order the page-accounting adapter tries them.
func DescribeSources(ctx context.Context, p Platform) []SourceInfo {
	switch p {
	case PlatformLinux:
		return []SourceInfo{
			fileSource("memory", sourceMeminfo, DefaultMeminfoPath),
			commandSource("process", sourcePSAux, "ps", psAuxArgs...),
		}
	case PlatformDarwin:
		return []SourceInfo{
			commandSource("memory", sourceVMStat, "vm_stat"),
			commandSource("capacity", sourceSysctl, "sysctl", sysctlArgs...),
			querySource(ctx, "capacity", sourceGopsutil, "mem.VirtualMemory", gopsutilMemSize),
			commandSource("process", sourcePSBSD, "ps", psBSDArgs...),
		}
	default:
		return []SourceInfo{
			{Role: "memory", Name: "unsupported", Mechanism: "-", Detail: fmt.Sprintf("no adapter for platform %q", p)},
			{Role: "process", Name: "unsupported", Mechanism: "-", Detail: fmt.Sprintf("no adapter for platform %q", p)},
		}
	}
}

func fileSource(role, name, path string) SourceInfo {
	info := SourceInfo{Role: role, Name: name, Mechanism: path}
	if _, err := statFile(path); err != nil {
		info.Detail = err.Error()
		return info
	}
	info.Available = true
	return info
}

func commandSource(role, name, command string, args ...string) SourceInfo {
	info := SourceInfo{Role: role, Name: name, Mechanism: strings.Join(append([]string{command}, args...), " ")}
	resolved, err := lookPath(command)
	if err != nil {
		info.Detail = err.Error()
		return info
	}
	info.Available = true
	info.Detail = resolved
	return info
}

func querySource(ctx context.Context, role, name, mechanism string, query CapacityFunc) SourceInfo {
	info := SourceInfo{Role: role, Name: name, Mechanism: mechanism}
	total, err := query(ctx)
	if err != nil {
		info.Detail = err.Error()
		return info
	}
	info.Available = true
	info.Detail = fmt.Sprintf("%.0f MB", metrics.BytesToMB(float64(total)))
	return info
}

// FormatSourcesTable formats source information as a table.
func FormatSourcesTable(host *HostInfo, sources []SourceInfo) string {
	var sb strings.Builder

	if host != nil {
		sb.WriteString(fmt.Sprintf("\nHost: %s (%s, %s, kernel %s)\n", host.Hostname, host.OS, host.Platform, host.Kernel))
	}

	sb.WriteString("\nData Sources:\n")
	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-9s %-12s %-34s %s\n", "ROLE", "ADAPTER", "MECHANISM", "STATUS"))
	sb.WriteString(strings.Repeat("-", 80))
	sb.WriteString("\n")

	for _, s := range sources {
		status := "missing"
		if s.Available {
			status = "ok"
		}
		if s.Detail != "" {
			status += " (" + truncate(s.Detail, 40) + ")"
		}
		sb.WriteString(fmt.Sprintf("%-9s %-12s %-34s %s\n",
			s.Role,
			s.Name,
			truncate(s.Mechanism, 34),
			status,
		))
	}

	sb.WriteString(strings.Repeat("=", 80))
	sb.WriteString("\n")

	return sb.String()
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
