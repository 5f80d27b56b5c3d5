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

package commands

import (
	"fmt"
	"os"

	"github.com/phuonguno98/wamr/internal/collector"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show which memory and process sources would be used",
	Long: `Show, for the selected platform, which memory and process adapters
would be used and whether the files and commands they depend on are present.
Useful when a run reports fallback data.

Examples:
  # Sources for this machine
  wamr sources

  # Sources the darwin adapters need
  wamr sources --platform darwin`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	fmt.Println("\n========================================")
	fmt.Println("   WhoAteMyRAM - Data Sources")
	fmt.Println("========================================")

	var hostPtr *collector.HostInfo
	host, err := collector.DescribeHost(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading host info: %v\n", err)
	} else {
		hostPtr = &host
	}

	p := collector.Platform(platform)
	sources := collector.DescribeSources(cmd.Context(), p)
	fmt.Print(collector.FormatSourcesTable(hostPtr, sources))

	// A role is only missing when none of its sources is available.
	resolved := make(map[string]bool)
	for _, s := range sources {
		resolved[s.Role] = resolved[s.Role] || s.Available
	}
	missing := 0
	for _, ok := range resolved {
		if !ok {
			missing++
		}
	}

	fmt.Println("\nNotes:")
	fmt.Printf("  - Platform: %s (override with --platform)\n", p)
	if missing > 0 {
		fmt.Println("  - Missing sources fall back to placeholder data unless --strict is set")
		fmt.Println("  - Use --demo to see example output without system access")
	}
	fmt.Println()

	return nil
}
