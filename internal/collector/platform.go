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

// Platform selects the memory and process adapters. It is supplied by the caller
// (normally runtime.GOOS) rather than detected from command output.
type Platform string

// Platforms with dedicated adapters.
const (
	PlatformLinux  Platform = "linux"
	PlatformDarwin Platform = "darwin"
)

// NewMemorySource returns the memory adapter for p.
func NewMemorySource(p Platform, runner Runner) MemorySource {
	switch p {
	case PlatformLinux:
		return NewMeminfoSource(DefaultMeminfoPath)
	case PlatformDarwin:
		return NewVMStatSource(runner, FirstCapacity(SysctlCapacity(runner), VirtualMemoryCapacity))
	default:
		return UnsupportedMemorySource{Platform: p}
	}
}

// NewProcessSource returns the process adapter for p.
func NewProcessSource(p Platform, runner Runner) ProcessSource {
	switch p {
	case PlatformLinux:
		return NewPSAuxSource(runner)
	case PlatformDarwin:
		return NewPSBSDSource(runner)
	default:
		return UnsupportedProcessSource{Platform: p}
	}
}
