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

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"
)

// Config represents application configuration for one analysis run.
type Config struct {
	Platform string // Platform discriminator selecting the source adapters (linux, darwin)

	// Classifier
	Model    string        // Classifier model identifier
	Endpoint string        // Base URL of the classifier service
	Timeout  time.Duration // Hard upper bound for one classifier round trip

	// Sampling
	TopN      int  // Number of processes kept after ranking
	TableRows int  // Rows shown in the degraded process table
	Strict    bool // Disable fallback data; an unusable host becomes a fatal NoData

	// Output
	OutputJSON bool   // Emit the structured report instead of text
	NoLLM      bool   // Skip classification and print the ranked process table
	Demo       bool   // Use literal fixtures instead of live OS and classifier access
	NoColor    bool   // Disable terminal styling
	ExportPath string // Optional CSV file receiving one row per run
	Timezone   string // Timezone for exported timestamps (e.g. "Local", "UTC")

	// Logging
	LogLevel string // Log level: debug, info, warn, error
	LogFile  string // Log file path (empty = stderr)
}

// Default configuration values.
const (
	DefaultModel     = "llama3.2:3b"
	DefaultEndpoint  = "http://localhost:11434"
	DefaultTimeout   = 60 * time.Second
	DefaultTopN      = 20
	DefaultTableRows = 15
	DefaultLogLevel  = "warn"
	DefaultTimezone  = "Local"

	// DefaultMaxExportFileSize is the size after which the CSV history file is rotated.
	DefaultMaxExportFileSize = 150 * 1024 * 1024 // 150MB

	maxTopN    = 500
	maxTimeout = 10 * time.Minute
)

// EndpointEnv names the environment variable that overrides DefaultEndpoint.
const EndpointEnv = "OLLAMA_HOST"

// Default returns a configuration populated with default values for the running host.
func Default() *Config {
	return &Config{
		Platform:  runtime.GOOS,
		Model:     DefaultModel,
		Endpoint:  DefaultEndpointFromEnv(),
		Timeout:   DefaultTimeout,
		TopN:      DefaultTopN,
		TableRows: DefaultTableRows,
		LogLevel:  DefaultLogLevel,
		Timezone:  DefaultTimezone,
	}
}

// DefaultEndpointFromEnv returns the classifier endpoint, honoring OLLAMA_HOST when set.
// A bare host:port value gets an http:// scheme.
func DefaultEndpointFromEnv() string {
	host := strings.TrimSpace(os.Getenv(EndpointEnv))
	if host == "" {
		return DefaultEndpoint
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Platform == "" {
		return errors.New("platform cannot be empty")
	}

	if c.TopN < 1 || c.TopN > maxTopN {
		return fmt.Errorf("top must be between 1 and %d", maxTopN)
	}

	if c.TableRows < 1 {
		return errors.New("table rows must be at least 1")
	}

	if c.Demo && c.Strict {
		return errors.New("demo and strict modes are mutually exclusive")
	}

	// Classifier settings only matter when classification runs
	if !c.NoLLM {
		if strings.TrimSpace(c.Model) == "" {
			return errors.New("model cannot be empty")
		}
		if c.Timeout <= 0 || c.Timeout > maxTimeout {
			return fmt.Errorf("timeout must be positive and at most %v", maxTimeout)
		}
		if err := validateEndpoint(c.Endpoint); err != nil {
			return err
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.ExportPath != "" {
		if err := ensureParentDir(c.ExportPath); err != nil {
			return fmt.Errorf("export path check failed: %w", err)
		}
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

// ensureParentDir checks that the directory holding path exists.
func ensureParentDir(path string) error {
	dir := "."
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		dir = path[:i]
		if dir == "" {
			dir = "/"
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("parent is not a directory: %s", dir)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Platform=%s, Model=%s, Endpoint=%s, Timeout=%v, Top=%d, JSON=%t, NoLLM=%t, Demo=%t, Strict=%t}",
		c.Platform, c.Model, c.Endpoint, c.Timeout, c.TopN, c.OutputJSON, c.NoLLM, c.Demo, c.Strict)
}
