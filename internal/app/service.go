// Package service provides the counter registry service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/counters/internal/adapters/repository"
	"github.com/okian/counters/internal/domain/counter"
	"github.com/okian/counters/pkg/logger"
	"github.com/okian/counters/pkg/metrics"
)

// Operation names used for metrics and logs.
const (
	opCreate = "create"
	opRead   = "read"
	opUpdate = "update"
	opDelete = "delete"
	opList   = "list"
)

// Service owns the counter store and exposes the registry operations.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	ownsStore bool

	// Configuration
	shardCount            int
	maxNameLength         int
	metricsUpdateInterval time.Duration

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShardCount sets the number of lock shards for the default store.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxNameLength caps counter name length in bytes.
func WithMaxNameLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNameLength = n
		}
	}
}

// WithMetricsUpdateInterval sets how often the default store refreshes gauges.
func WithMetricsUpdateInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsUpdateInterval = d
		}
	}
}

// WithStore injects a store. The service does not close injected stores.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:            16,
		maxNameLength:         256,
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the default store when none was injected. Calling Start on a
// running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewShardedStore(ctx,
			repository.WithShardCount(s.shardCount),
			repository.WithMetricsUpdateInterval(s.metricsUpdateInterval),
		)
		s.ownsStore = true
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "counter registry started",
		logger.Int("shards", s.shardCount),
		logger.Int("maxNameLength", s.maxNameLength),
		logger.Bool("injectedStore", !s.ownsStore),
	)
	return nil
}

// Stop releases the owned store. Counters are not persisted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
			}
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "counter registry stopped")
}

func (s *Service) activeStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Create registers name with value 0.
func (s *Service) Create(ctx context.Context, name string) (counter.Counter, error) {
	store, err := s.prepare(opCreate, name)
	if err != nil {
		return counter.Counter{}, err
	}
	c, err := store.Create(ctx, name)
	s.record(ctx, opCreate, name, err)
	return c, err
}

// Read returns the current value of name.
func (s *Service) Read(ctx context.Context, name string) (counter.Counter, error) {
	store, err := s.prepare(opRead, name)
	if err != nil {
		return counter.Counter{}, err
	}
	c, err := store.Get(ctx, name)
	s.record(ctx, opRead, name, err)
	return c, err
}

// Update increments name by one and returns the new value.
func (s *Service) Update(ctx context.Context, name string) (counter.Counter, error) {
	store, err := s.prepare(opUpdate, name)
	if err != nil {
		return counter.Counter{}, err
	}
	c, err := store.Increment(ctx, name)
	if err == nil {
		metrics.RecordIncrement()
	}
	s.record(ctx, opUpdate, name, err)
	return c, err
}

// Delete removes name.
func (s *Service) Delete(ctx context.Context, name string) error {
	store, err := s.prepare(opDelete, name)
	if err != nil {
		return err
	}
	err = store.Delete(ctx, name)
	s.record(ctx, opDelete, name, err)
	return err
}

// List returns every counter ordered by name.
func (s *Service) List(ctx context.Context) ([]counter.Counter, error) {
	store, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	out := store.Snapshot(ctx)
	metrics.RecordOperation(opList, "ok")
	return out, nil
}

// prepare validates name and resolves the store, recording rejections.
func (s *Service) prepare(op, name string) (repository.Store, error) {
	if err := counter.ValidateName(name, s.maxNameLength); err != nil {
		metrics.RecordOperation(op, resultOf(err))
		return nil, err
	}
	store, err := s.activeStore()
	if err != nil {
		metrics.RecordOperation(op, resultOf(err))
		return nil, err
	}
	return store, nil
}

func (s *Service) record(ctx context.Context, op, name string, err error) {
	result := resultOf(err)
	metrics.RecordOperation(op, result)
	if op == opCreate || op == opDelete {
		if store, serr := s.activeStore(); serr == nil {
			metrics.UpdateCountersTotal(store.Count(ctx))
		}
	}
	s.logger.Debug(ctx, "counter operation",
		logger.String("op", op),
		logger.String("name", name),
		logger.String("result", result),
	)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, counter.ErrConflict):
		return "conflict"
	case errors.Is(err, counter.ErrNotFound):
		return "not_found"
	case errors.Is(err, counter.ErrInvalidName):
		return "invalid"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	default:
		return "error"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"shardCount":    s.shardCount,
		"maxNameLength": s.maxNameLength,
	}

	if s.started {
		total := s.store.Count(context.Background())
		stats["totalCounters"] = total
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		metrics.UpdateCountersTotal(total)
	}

	return stats
}
