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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/phuonguno98/wamr/pkg/metrics"
)

// Outcome tags the result of one classification attempt.
type Outcome string

// Classification outcomes. Everything except OutcomeClassified means the report is absent.
const (
	OutcomeClassified        Outcome = "classified"
	OutcomeSkipped           Outcome = "skipped"
	OutcomeClientUnavailable Outcome = "client_unavailable"
	OutcomeUnreachable       Outcome = "unreachable"
	OutcomeTimeout           Outcome = "timeout"
	OutcomeServiceError      Outcome = "service_error"
	OutcomeMalformed         Outcome = "malformed"
)

// Errors reported alongside non-classified outcomes.
var (
	ErrClientUnavailable = errors.New("classifier client unavailable")
	ErrServiceStatus     = errors.New("classifier service returned an error status")
)

// MaxPreviewBytes bounds the payload excerpt attached to diagnostics.
const MaxPreviewBytes = 500

// DefaultTimeout bounds one round trip when Options.Timeout is unset.
const DefaultTimeout = 60 * time.Second

// ResponseFormat is the response-format hint sent with every request.
const ResponseFormat = "json"

// Result is the outcome of Classify. Report is nil unless Outcome is OutcomeClassified.
type Result struct {
	Report  *Report
	Outcome Outcome
	Err     error
}

// Classified reports whether a validated report is present.
func (r Result) Classified() bool {
	return r.Outcome == OutcomeClassified && r.Report != nil
}

// Options configures a Classifier.
type Options struct {
	Model    string
	Platform string
	Timeout  time.Duration
}

// Classifier turns an observation into a prioritized report through a Client.
type Classifier struct {
	client Client
	opts   Options
	logger *slog.Logger
}

// New creates a classifier. A nil client yields OutcomeClientUnavailable on every call.
func New(client Client, opts Options, logger *slog.Logger) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Classifier{client: client, opts: opts, logger: logger}
}

// Classify performs one round trip to the classifier service. It never returns
// an error directly: failures are reported through Result.Outcome and Result.Err.
func (c *Classifier) Classify(ctx context.Context, snapshot metrics.MemorySnapshot, processes []metrics.ProcessSample) Result {
	if c.client == nil {
		return c.absent(OutcomeClientUnavailable, ErrClientUnavailable, "")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req := GenerateRequest{
		Model:  c.opts.Model,
		Prompt: BuildPrompt(c.opts.Platform, snapshot, processes),
		Format: ResponseFormat,
	}

	c.logger.Debug("Sending classification request",
		"model", req.Model,
		"processes", min(len(processes), PromptProcessLimit),
		"timeout", c.opts.Timeout,
	)

	start := time.Now()
	resp, err := c.client.Generate(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformed):
			return c.absent(OutcomeMalformed, err, resp.Text)
		case isTimeout(ctx, err):
			return c.absent(OutcomeTimeout, fmt.Errorf("no response within %v: %w", c.opts.Timeout, err), "")
		default:
			return c.absent(OutcomeUnreachable, err, "")
		}
	}

	if resp.Status != http.StatusOK {
		return c.absent(OutcomeServiceError, fmt.Errorf("%w: status %d", ErrServiceStatus, resp.Status), resp.Text)
	}

	report, err := Decode([]byte(resp.Text))
	if err != nil {
		return c.absent(OutcomeMalformed, err, resp.Text)
	}

	high, medium, safe := report.Counts()
	c.logger.Info("Classification completed",
		"model", req.Model,
		"duration", time.Since(start),
		"high", high,
		"medium", medium,
		"safe", safe,
	)

	return Result{Report: report, Outcome: OutcomeClassified}
}

// absent logs the failure and returns a result without a report.
func (c *Classifier) absent(outcome Outcome, err error, payload string) Result {
	attrs := []any{
		"outcome", string(outcome),
		"model", c.opts.Model,
		"error", err,
	}
	if payload != "" {
		attrs = append(attrs, "preview", preview(payload, MaxPreviewBytes))
	}

	switch outcome {
	case OutcomeClientUnavailable:
		c.logger.Warn("Classifier client is not available", attrs...)
	case OutcomeUnreachable:
		c.logger.Warn("Cannot connect to the classifier service (is `ollama serve` running?)", attrs...)
	case OutcomeTimeout:
		c.logger.Warn("Classifier service timed out", attrs...)
	case OutcomeServiceError:
		c.logger.Warn("Classifier service returned an error", attrs...)
	case OutcomeMalformed:
		c.logger.Warn("Classifier response is not a valid report", attrs...)
	}

	return Result{Outcome: outcome, Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// preview returns at most limit bytes of s without splitting a UTF-8 sequence.
func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
