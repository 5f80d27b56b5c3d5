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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/phuonguno98/wamr/internal/config"
	"github.com/phuonguno98/wamr/internal/exporter"
	"github.com/phuonguno98/wamr/internal/pipeline"
	"github.com/phuonguno98/wamr/internal/report"
	"github.com/phuonguno98/wamr/pkg/version"
	"github.com/spf13/cobra"
)

var (
	// Global persistent flags (shared by subcommands)
	logLevel string
	logFile  string
	timezone string

	// Pipeline flags, shared by the analysis and serve commands
	model      string
	endpoint   string
	timeout    time.Duration
	topN       int
	platform   string
	noLLM      bool
	demoMode   bool
	strictMode bool
	exportPath string

	// Output flags
	outputJSON bool
	noColor    bool
)

// rootCmd represents the base command. Called without a subcommand it runs one analysis.
var rootCmd = &cobra.Command{
	Use:   "wamr",
	Short: "WhoAteMyRAM - find out what is using your memory",
	Long: `WhoAteMyRAM samples system memory and the largest processes, asks a local
LLM (Ollama) to sort them into what deserves attention and what is safe to ignore,
and prints a short report.

Examples:
  # Analyze with the default model
  wamr

  # Structured output, no styling
  wamr --json

  # Skip classification, just list the top processes
  wamr --no-llm

  # Example output without touching the system or Ollama
  wamr --demo`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (empty = stderr)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", config.DefaultTimezone,
		"Timezone for exported timestamps (e.g., 'Asia/Ho_Chi_Minh', 'Local')")

	rootCmd.PersistentFlags().StringVar(&model, "model", config.DefaultModel,
		"Ollama model used for classification")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", config.DefaultEndpointFromEnv(),
		"Ollama base URL (env "+config.EndpointEnv+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", config.DefaultTimeout,
		"Upper bound for one classification request")
	rootCmd.PersistentFlags().IntVar(&topN, "top", config.DefaultTopN,
		"Number of processes sampled, ranked by resident memory")
	rootCmd.PersistentFlags().StringVar(&platform, "platform", runtime.GOOS,
		"Platform adapters to use (linux, darwin)")
	rootCmd.PersistentFlags().BoolVar(&noLLM, "no-llm", false,
		"Skip classification and show the ranked process list")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false,
		"Use built-in example data instead of the system and Ollama")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false,
		"Never substitute placeholder data when a source fails")
	rootCmd.PersistentFlags().StringVar(&exportPath, "export", "",
		"Append one CSV row per run to this file")

	rootCmd.Flags().BoolVar(&outputJSON, "json", false, "Output JSON instead of formatted text")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// buildConfig creates a Config object from parsed flags.
func buildConfig() (*config.Config, error) {
	cfg := &config.Config{
		Platform:   platform,
		Model:      model,
		Endpoint:   endpoint,
		Timeout:    timeout,
		TopN:       topN,
		TableRows:  config.DefaultTableRows,
		Strict:     strictMode,
		OutputJSON: outputJSON,
		NoLLM:      noLLM,
		Demo:       demoMode,
		NoColor:    noColor,
		ExportPath: exportPath,
		Timezone:   timezone,
		LogLevel:   logLevel,
		LogFile:    logFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// InitLogger initializes and returns a slog.Logger based on the provided settings.
// Stdout carries the report, so the default handler writes to stderr.
func InitLogger(levelStr, fileStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)
	logger.Info("Starting WhoAteMyRAM",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Debug("Configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return analyze(ctx, cfg, pipeline.New(cfg, logger), logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runner is the part of the pipeline the analysis command needs.
type runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// analyze performs one run and writes the report to stdout. Progress and guidance go to stderr.
// NoData is returned with its guidance attached, for main to print.
func analyze(ctx context.Context, cfg *config.Config, p runner, logger *slog.Logger, stdout, stderr io.Writer) error {
	format := report.FormatText
	if cfg.OutputJSON {
		format = report.FormatJSON
	}

	if format == report.FormatText && !cfg.NoLLM {
		fmt.Fprintf(stderr, "Analyzing memory usage with %s...\n", cfg.Model)
	}

	result, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			return fmt.Errorf("%w\n\nTry running with --demo flag to see example output:\n  wamr --demo", err)
		}
		return err
	}

	if cfg.ExportPath != "" {
		exportRun(cfg, result, logger)
	}

	renderer := report.NewRenderer(report.Options{
		Color:     !cfg.NoColor && format == report.FormatText,
		Demo:      cfg.Demo,
		TableRows: cfg.TableRows,
		Notes:     result.Notes(),
	})

	obs := result.Observation
	if result.Classification.Classified() {
		return renderer.Render(stdout, result.Classification.Report, obs.Memory.Snapshot, format)
	}

	if !cfg.NoLLM {
		printClassifierGuidance(stderr, cfg, result)
	}
	return renderer.RenderProcessTable(stdout, obs.Memory.Snapshot, obs.Processes.Processes, obs.Degraded(), format)
}

// printClassifierGuidance explains why the report fell back to the process table.
func printClassifierGuidance(w io.Writer, cfg *config.Config, result *pipeline.Result) {
	fmt.Fprintf(w, "Error: LLM analysis unavailable (%s). Showing the ranked process list instead.\n", result.Classification.Outcome)
	fmt.Fprintln(w, "\nMake sure Ollama is running and the model is pulled:")
	fmt.Fprintln(w, "  ollama serve")
	fmt.Fprintf(w, "  ollama pull %s\n", cfg.Model)
	fmt.Fprintln(w, "\nUse --no-llm to skip classification, or --demo to see example output:")
	fmt.Fprintln(w, "  wamr --demo")
	fmt.Fprintln(w)
}

// exportRun appends the run to the CSV history. Export failures do not fail the run.
func exportRun(cfg *config.Config, result *pipeline.Result, logger *slog.Logger) {
	csvExporter, err := exporter.NewCSVExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to create CSV exporter", "error", err)
		return
	}
	defer func() {
		if err := csvExporter.Close(); err != nil {
			logger.Error("Failed to close exporter", "error", err)
		}
	}()

	if err := csvExporter.Export(result); err != nil {
		logger.Error("Failed to export run", "path", cfg.ExportPath, "error", err)
	}
}
