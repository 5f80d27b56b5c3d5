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

import "context"

// GenerateRequest is one request to a classifier service.
type GenerateRequest struct {
	Model  string // Model identifier
	Prompt string // Free-text prompt
	Format string // Response-format hint, e.g. "json"
}

// GenerateResponse is the service reply. Text is the raw payload expected
// to hold a Report; for non-success statuses it may hold an error body.
type GenerateResponse struct {
	Status int
	Text   string
}

// Client is the boundary to a classifier service. Implementations perform
// exactly one round trip per call and never retry.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
