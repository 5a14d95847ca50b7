package loadgen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/counters/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger, teeing to logFile when set.
// The returned closer releases the file.
func SetupLogging(logFile, format string, verbose bool) (io.Closer, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(w)); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Counter Registry Load Tool
==========================

Creates uniquely named counters, increments them concurrently and verifies
that every acknowledged increment is reflected in the final values.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -counters int       Number of counters to create (default 8)
  -requests int       Total increments across all counters (default 10000)
  -workers int        Maximum concurrent requests (default CPU cores * 2)
  -timeout duration   HTTP request timeout (default 30s)
  -prefix string      Counter name prefix (default "loadgen")
  -keep               Keep the counters after the run
  -log string         Also write logs to this file
  -log-format string  text or json (default "text")
  -verbose            Log every failed request
  -help               Show this help message

Examples:
  go run ./cmd/loadgen -requests 50000 -workers 64
  go run ./cmd/loadgen -url http://localhost:8080 -counters 1 -keep
`)
}
