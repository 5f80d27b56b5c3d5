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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuonguno98/wamr/internal/exporter"
	"github.com/phuonguno98/wamr/internal/pipeline"
	"github.com/phuonguno98/wamr/internal/server"
	"github.com/spf13/cobra"
)

var (
	// Serve command specific flags
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve memory analysis as a JSON API",
	Long: `Start an HTTP server exposing the analysis as JSON. Every request
samples the system again; nothing is cached between requests.

Endpoints:
  GET /api/health
  GET /api/version
  GET /api/memory
  GET /api/processes?limit=N
  GET /api/report

Examples:
  # Start server on default port 8080
  wamr serve

  # Start on localhost only, with fixture data
  wamr serve --host 127.0.0.1 --port 3000 --demo`,

	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "HTTP server listen address")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP server port")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("Starting WhoAteMyRAM API",
		"host", serveHost,
		"port", servePort,
		"config", cfg.String(),
	)

	var recorder server.Recorder
	if cfg.ExportPath != "" {
		csvExporter, err := exporter.NewCSVExporter(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create CSV exporter: %w", err)
		}
		defer func() {
			if err := csvExporter.Close(); err != nil {
				logger.Error("Failed to close exporter", "error", err)
			}
		}()
		recorder = csvExporter
	}

	srv := server.NewServer(pipeline.New(cfg, logger), recorder, logger)

	// The report endpoint may wait for the classifier, so the write timeout follows it.
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serveHost, servePort),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, initiating shutdown", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", servePort)
	if serveHost != "0.0.0.0" {
		serverURL = fmt.Sprintf("http://%s:%d", serveHost, servePort)
	}

	fmt.Printf("\nWhoAteMyRAM API is running!\n")
	fmt.Printf("URL: %s/api/report\n\n", serverURL)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
	return nil
}
