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
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"
)

// CapacityFunc returns the total physical memory of the host in bytes.
// Page-accounting sources cannot derive it from their own output.
type CapacityFunc func(ctx context.Context) (uint64, error)

const (
	sourceSysctl   = "sysctl"
	sourceGopsutil = "gopsutil"
)

var sysctlArgs = []string{"-n", "hw.memsize"}

// SysctlCapacity queries hw.memsize through the sysctl binary.
func SysctlCapacity(runner Runner) CapacityFunc {
	return func(ctx context.Context) (uint64, error) {
		out, err := runner.Run(ctx, "sysctl", sysctlArgs...)
		if err != nil {
			return 0, commandError(sourceSysctl, "sysctl", err)
		}

		value := strings.TrimSpace(string(out))
		total, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return 0, parseError(sourceSysctl, value, err)
		}
		return total, nil
	}
}

// VirtualMemoryCapacity queries total memory through gopsutil.
func VirtualMemoryCapacity(ctx context.Context) (uint64, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, unavailable(sourceGopsutil, fmt.Errorf("failed to get memory stats: %w", err))
	}
	return vmStat.Total, nil
}

// FirstCapacity tries each query in order and returns the first success.
// When every query fails the joined errors are returned.
func FirstCapacity(queries ...CapacityFunc) CapacityFunc {
	return func(ctx context.Context) (uint64, error) {
		var errs []error
		for _, query := range queries {
			total, err := query(ctx)
			if err == nil {
				return total, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return 0, unavailable("capacity", errors.New("no capacity query configured"))
		}
		return 0, errors.Join(errs...)
	}
}
