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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	generatePath    = "/api/generate"
	maxResponseBody = 8 * 1024 * 1024
	maxErrorBody    = 500
)

// OllamaClient talks to the Ollama generate API.
type OllamaClient struct {
	endpoint   string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// NewOllamaClient creates a client for the service at endpoint.
// The round trip is bounded by the caller's context, not by the HTTP client.
func NewOllamaClient(endpoint string) (*OllamaClient, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: expected http(s)://host[:port]", endpoint)
	}

	return &OllamaClient{
		endpoint:   strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
	}, nil
}

// Endpoint returns the base URL requests are sent to.
func (c *OllamaClient) Endpoint() string {
	return c.endpoint
}

// Generate sends one non-streaming generate request.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Format: req.Format,
	})
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+generatePath, bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return GenerateResponse{Status: resp.StatusCode, Text: preview(string(data), maxErrorBody)}, nil
	}

	var envelope ollamaResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return GenerateResponse{Status: resp.StatusCode, Text: preview(string(data), maxErrorBody)},
			fmt.Errorf("%w: invalid response envelope: %v", ErrMalformed, err)
	}
	if envelope.Error != "" {
		return GenerateResponse{Status: http.StatusInternalServerError, Text: envelope.Error}, nil
	}

	return GenerateResponse{Status: resp.StatusCode, Text: envelope.Response}, nil
}
