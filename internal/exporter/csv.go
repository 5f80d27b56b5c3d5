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

package exporter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phuonguno98/wamr/internal/config"
	"github.com/phuonguno98/wamr/internal/pipeline"
)

const naString = "N/A"

var header = []string{
	"Run ID",
	"Timestamp",
	"Total Memory (MB)",
	"Used Memory (MB)",
	"Free Memory (MB)",
	"Memory Utilization (%)",
	"Status",
	"Memory Fallback",
	"Process Fallback",
	"Classification",
	"High Priority",
	"Medium Priority",
	"Safe To Ignore",
	"Reclaimable (MB)",
	"Top Consumer",
	"Top Consumer Memory (MB)",
}

// CSVExporter appends one row per run to a CSV history file with buffering.
type CSVExporter struct {
	file          *os.File
	csvWriter     *csv.Writer
	bufWriter     *bufio.Writer
	logger        *slog.Logger
	headerWritten bool
	location      *time.Location // Timezone location for timestamps
	currentSize   int64          // Current file size in bytes
	maxSize       int64          // Size at which the file is rotated
	basePath      string         // Base output path
}

// NewCSVExporter opens (or creates) the history file at cfg.ExportPath.
// A header is written only when the file is new or empty.
func NewCSVExporter(cfg *config.Config, logger *slog.Logger) (*CSVExporter, error) {
	if cfg.ExportPath == "" {
		return nil, errors.New("export path is empty")
	}

	// Parse timezone
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
	}

	exporter := &CSVExporter{
		logger:   logger,
		location: loc,
		maxSize:  config.DefaultMaxExportFileSize,
		basePath: cfg.ExportPath,
	}
	if err := exporter.open(); err != nil {
		return nil, err
	}

	return exporter, nil
}

func (e *CSVExporter) open() error {
	file, err := os.OpenFile(e.basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	// Get initial file size (if appending)
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat file: %w", err)
	}

	e.file = file
	e.bufWriter = bufio.NewWriterSize(file, 8192) // 8KB buffer
	e.csvWriter = csv.NewWriter(e.bufWriter)
	e.currentSize = stat.Size()
	e.headerWritten = stat.Size() > 0
	return nil
}

// Export writes the row for one run and flushes it to disk.
func (e *CSVExporter) Export(result *pipeline.Result) error {
	// Check for rotation before writing
	if e.currentSize >= e.maxSize {
		if err := e.rotateFile(); err != nil {
			e.logger.Error("Failed to rotate file", "error", err)
		}
	}

	if !e.headerWritten {
		if err := e.csvWriter.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		e.currentSize += rowSize(header)
		e.headerWritten = true
	}

	row := e.buildRow(result)
	if err := e.csvWriter.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	e.currentSize += rowSize(row) // Approximate size tracking

	return e.flush()
}

// buildRow builds a CSV row from a run result.
func (e *CSVExporter) buildRow(result *pipeline.Result) []string {
	obs := result.Observation
	snapshot := obs.Memory.Snapshot
	ts := obs.Timestamp.In(e.location)

	row := []string{
		result.RunID.String(),
		ts.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%.2f", snapshot.TotalMB),
		fmt.Sprintf("%.2f", snapshot.UsedMB),
		fmt.Sprintf("%.2f", snapshot.FreeMB),
		fmt.Sprintf("%.2f", snapshot.UsedPercent),
		string(snapshot.Status()),
		strconv.FormatBool(snapshot.Fallback),
		strconv.FormatBool(obs.Processes.Fallback),
		string(result.Classification.Outcome),
	}

	if report := result.Classification.Report; report != nil {
		high, medium, safe := report.Counts()
		row = append(row,
			strconv.Itoa(high),
			strconv.Itoa(medium),
			strconv.Itoa(safe),
			fmt.Sprintf("%.2f", report.TotalReclaimableMB))
	} else {
		row = append(row, naString, naString, naString, naString)
	}

	if top := obs.TopProcesses(1); len(top) > 0 {
		row = append(row, top[0].Name, fmt.Sprintf("%.2f", top[0].ResidentMemoryMB))
	} else {
		row = append(row, naString, naString)
	}

	return row
}

func rowSize(row []string) int64 {
	size := 0
	for _, cell := range row {
		size += len(cell) + 1 // +1 for comma
	}
	return int64(size + 1) // +1 for newline approximation
}

// flush flushes the buffered data to disk.
func (e *CSVExporter) flush() error {
	e.csvWriter.Flush()
	if err := e.csvWriter.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	if err := e.bufWriter.Flush(); err != nil {
		return fmt.Errorf("buffer writer error: %w", err)
	}

	e.logger.Debug("Flushed to disk", "path", e.basePath, "size", e.currentSize)
	return nil
}

// Close flushes remaining data and closes the file.
func (e *CSVExporter) Close() error {
	if err := e.flush(); err != nil {
		e.logger.Error("Final flush failed", "error", err)
	}

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// rotateFile moves the full history file aside to <base>_<n><ext>, using the
// first unused index, and starts a fresh file at the base path.
func (e *CSVExporter) rotateFile() error {
	e.logger.Info("Rotating output file", "current_size", e.currentSize)

	// Flush and close current file
	if err := e.flush(); err != nil {
		return fmt.Errorf("flush before rotate failed: %w", err)
	}
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("close before rotate failed: %w", err)
	}

	// Generate new filename with collision existence check
	ext := filepath.Ext(e.basePath)
	base := strings.TrimSuffix(e.basePath, ext)
	var rotatedPath string

	for index := 1; ; index++ {
		rotatedPath = fmt.Sprintf("%s_%d%s", base, index, ext)
		// Check if file exists to avoid overwriting previous data or manual files
		if _, err := os.Stat(rotatedPath); os.IsNotExist(err) {
			break
		}
	}

	renameErr := os.Rename(e.basePath, rotatedPath)

	// Reopen the base path whether or not the rename worked, so writing can continue
	if err := e.open(); err != nil {
		return fmt.Errorf("failed to reopen output file: %w", err)
	}
	if renameErr != nil {
		return fmt.Errorf("failed to move %s aside: %w", e.basePath, renameErr)
	}

	e.logger.Info("File rotated successfully", "rotated_path", rotatedPath)
	return nil
}
