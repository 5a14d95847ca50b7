package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/counters/internal/loadgen"
	"github.com/okian/counters/pkg/logger"
)

const (
	defaultCounters = 8
	defaultRequests = 10000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	runTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		counters  = flag.Int("counters", defaultCounters, "Number of counters to create")
		requests  = flag.Int("requests", defaultRequests, "Total increments across all counters")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Maximum concurrent requests")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		prefix    = flag.String("prefix", "loadgen", "Counter name prefix")
		keep      = flag.Bool("keep", false, "Keep the counters after the run")
		logFile   = flag.String("log", "", "Also write logs to this file")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Log every failed request")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	closer, err := loadgen.SetupLogging(*logFile, *logFormat, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:  *baseURL,
		Counters: *counters,
		Requests: *requests,
		Workers:  *workers,
		Timeout:  *timeout,
		Prefix:   *prefix,
		Keep:     *keep,
		Verbose:  *verbose,
	}

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		_ = closer.Close()
		os.Exit(1)
	}
}
