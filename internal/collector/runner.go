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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
)

// Runner runs an external command to completion and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct{}

// Run executes name with args and waits for it to exit.
// A non-zero exit status is returned as an *exec.ExitError.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// readFile is the file access used by file-backed sources.
type readFile func(name string) ([]byte, error)

var osReadFile readFile = os.ReadFile

const maxStderrPreview = 200

// commandError classifies a failed command run.
// A missing binary or a cancelled run means the source is unavailable;
// a command that ran and exited non-zero is treated like unparseable output.
func commandError(source, name string, err error) *SourceError {
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		stderr := string(bytes.TrimSpace(exitErr.Stderr))
		if len(stderr) > maxStderrPreview {
			stderr = stderr[:maxStderrPreview]
		}
		cause := fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
		if stderr != "" {
			cause = fmt.Errorf("%w: %s", cause, stderr)
		}
		return parseError(source, "", cause)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return unavailable(source, fmt.Errorf("%s not found: %w", name, err))
	default:
		return unavailable(source, fmt.Errorf("failed to run %s: %w", name, err))
	}
}
