// Package loadgen drives concurrent traffic against a counter registry and
// checks that no acknowledged increment was lost.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/counters/pkg/logger"
)

const percentageMultiplier = 100

// Run executes one load run and returns its statistics. Counters created by
// the run are deleted afterwards unless cfg.Keep is set.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("counters", cfg.Counters),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	names := counterNames(cfg.Prefix, cfg.Counters)
	if err := createCounters(ctx, c, names, stats); err != nil {
		cleanup(ctx, c, log, names[:stats.CountersCreated], stats)
		return stats, fmt.Errorf("counter creation failed: %w", err)
	}

	acked, err := incrementCounters(ctx, cfg, c, log, names, stats)
	if err == nil {
		err = verify(ctx, c, names, acked, stats)
	}

	if !cfg.Keep {
		cleanup(ctx, c, log, names, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if err != nil {
		return stats, err
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func counterNames(prefix string, n int) []string {
	if prefix == "" {
		prefix = "loadgen"
	}
	names := make([]string, n)
	for i := range names {
		names[i] = prefix + "-" + uuid.NewString()
	}
	return names
}

func createCounters(ctx context.Context, c *client, names []string, stats *Stats) error {
	for _, name := range names {
		if err := c.create(ctx, name); err != nil {
			return err
		}
		stats.CountersCreated++
	}
	return nil
}

// incrementCounters spreads cfg.Requests PUTs round-robin over names with at
// most cfg.Workers in flight. It returns acknowledged increments per counter.
func incrementCounters(ctx context.Context, cfg *Config, c *client, log logger.Logger, names []string, stats *Stats) ([]int64, error) {
	acked := make([]int64, len(names))
	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := 0; i < cfg.Requests; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i % len(names)
		g.Go(func() error {
			sent.Add(1)
			status, _, err := c.increment(gctx, names[idx])
			if err == nil && status == http.StatusOK {
				atomic.AddInt64(&acked[idx], 1)
				return nil
			}
			failed.Add(1)
			if cfg.Verbose {
				log.Warn(gctx, "increment failed",
					logger.String("counter", names[idx]),
					logger.Int("status", status),
					logger.Error(err))
			}
			// Only cancellation aborts the run; other failures are counted.
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	stats.RequestsSent = int(sent.Load())
	stats.RequestsFailed = int(failed.Load())
	stats.RequestsSucceeded = stats.RequestsSent - stats.RequestsFailed
	if err == nil {
		err = ctx.Err()
	}
	return acked, err
}

// verify reads every counter back and compares it to its acknowledged PUTs.
func verify(ctx context.Context, c *client, names []string, acked []int64, stats *Stats) error {
	var mismatches []error
	for i, name := range names {
		v, err := c.read(ctx, name)
		if err != nil {
			return err
		}
		stats.ObservedTotal += v
		if v != acked[i] {
			mismatches = append(mismatches, fmt.Errorf("%s: observed %d, acknowledged %d", name, v, acked[i]))
		}
	}

	if stats.ObservedTotal != int64(stats.RequestsSucceeded) {
		mismatches = append(mismatches, fmt.Errorf("sum of values %d != successful increments %d",
			stats.ObservedTotal, stats.RequestsSucceeded))
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(mismatches...))
	}
	return nil
}

// cleanup deletes names on a fresh context so a cancelled run still tidies up.
func cleanup(ctx context.Context, c *client, log logger.Logger, names []string, stats *Stats) {
	cctx := context.WithoutCancel(ctx)
	for _, name := range names {
		if err := c.remove(cctx, name); err != nil {
			log.Warn(ctx, "failed to delete counter", logger.String("counter", name), logger.Error(err))
			continue
		}
		stats.CountersDeleted++
	}
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.RequestsSent > 0 {
		successRate = float64(stats.RequestsSucceeded) / float64(stats.RequestsSent) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("countersCreated", stats.CountersCreated),
		logger.Int("countersDeleted", stats.CountersDeleted),
		logger.Int("requestsSent", stats.RequestsSent),
		logger.Int("requestsSucceeded", stats.RequestsSucceeded),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int64("observedTotal", stats.ObservedTotal),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
