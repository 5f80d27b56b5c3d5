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
	"errors"
	"fmt"
)

// Sentinel errors identifying why a source produced no live data.
var (
	// ErrSourceUnavailable means the accounting or listing mechanism could not be invoked at all.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceParse means the mechanism ran but its output did not have the expected shape.
	ErrSourceParse = errors.New("source output could not be parsed")
)

// Kind tags a SourceError.
type Kind string

// Failure kinds.
const (
	KindUnavailable Kind = "unavailable"
	KindParse       Kind = "parse"
)

// SourceError describes a failed memory or process read.
type SourceError struct {
	Source string // Adapter name, e.g. "meminfo" or "ps-bsd"
	Kind   Kind
	Line   string // Offending input line, when known
	Err    error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.describe())
	if e.Line != "" {
		msg += fmt.Sprintf(" (line %q)", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceError) describe() string {
	if e.Kind == KindUnavailable {
		return ErrSourceUnavailable.Error()
	}
	return ErrSourceParse.Error()
}

// Unwrap exposes the underlying cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching this error's kind.
func (e *SourceError) Is(target error) bool {
	switch target {
	case ErrSourceUnavailable:
		return e.Kind == KindUnavailable
	case ErrSourceParse:
		return e.Kind == KindParse
	}
	return false
}

func unavailable(source string, err error) *SourceError {
	return &SourceError{Source: source, Kind: KindUnavailable, Err: err}
}

func parseError(source, line string, err error) *SourceError {
	return &SourceError{Source: source, Kind: KindParse, Line: line, Err: err}
}

// KindOf returns the failure kind of err, or an empty Kind if err is not a SourceError.
func KindOf(err error) Kind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
