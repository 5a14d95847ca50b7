package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/counters/internal/domain/counter"
	"github.com/okian/counters/pkg/metrics"
)

// Store defaults.
const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
	microsPerMilli               = 1000.0
)

// shard owns a subset of names. Its mutex covers every read-modify-write on
// those names, which is what keeps concurrent increments from being lost.
type shard struct {
	mu     sync.Mutex
	values map[string]int64
}

// ShardedStore is an in-memory Store partitioned by xxhash of the name.
type ShardedStore struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration
	total                 atomic.Int64

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*ShardedStore)(nil)

// NewShardedStore constructs a store and starts its metrics updater, which
// runs until ctx is cancelled or Close is called.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{values: make(map[string]int64)}
	}

	metrics.UpdateStoreShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)

	return s
}

func (s *ShardedStore) shardFor(name string) *shard {
	return s.shards[xxhash.Sum64String(name)%uint64(len(s.shards))]
}

// Create implements Store.Create.
func (s *ShardedStore) Create(_ context.Context, name string) (counter.Counter, error) {
	defer observe("create", time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.values[name]; exists {
		return counter.Counter{}, fmt.Errorf("create %q: %w", name, counter.ErrConflict)
	}
	sh.values[name] = 0
	s.total.Add(1)
	return counter.Counter{Name: name}, nil
}

// Get implements Store.Get.
func (s *ShardedStore) Get(_ context.Context, name string) (counter.Counter, error) {
	defer observe("read", time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.values[name]
	if !ok {
		return counter.Counter{}, fmt.Errorf("get %q: %w", name, counter.ErrNotFound)
	}
	return counter.Counter{Name: name, Value: v}, nil
}

// Increment implements Store.Increment.
func (s *ShardedStore) Increment(_ context.Context, name string) (counter.Counter, error) {
	defer observe("update", time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.values[name]
	if !ok {
		return counter.Counter{}, fmt.Errorf("increment %q: %w", name, counter.ErrNotFound)
	}
	v++
	sh.values[name] = v
	return counter.Counter{Name: name, Value: v}, nil
}

// Delete implements Store.Delete.
func (s *ShardedStore) Delete(_ context.Context, name string) error {
	defer observe("delete", time.Now())

	sh := s.shardFor(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.values[name]; !ok {
		return fmt.Errorf("delete %q: %w", name, counter.ErrNotFound)
	}
	delete(sh.values, name)
	s.total.Add(-1)
	return nil
}

// Count implements Store.Count.
func (s *ShardedStore) Count(_ context.Context) int {
	return int(s.total.Load())
}

// Snapshot implements Store.Snapshot.
func (s *ShardedStore) Snapshot(_ context.Context) []counter.Counter {
	defer observe("list", time.Now())

	out := make([]counter.Counter, 0, s.total.Load())
	for _, sh := range s.shards {
		sh.mu.Lock()
		for name, v := range sh.values {
			out = append(out, counter.Counter{Name: name, Value: v})
		}
		sh.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ShardCount returns the number of lock shards.
func (s *ShardedStore) ShardCount() int {
	return len(s.shards)
}

// Close stops the metrics updater. The store stays usable afterwards.
func (s *ShardedStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater publishes per-shard record counts on a ticker.
func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics() {
	for i, sh := range s.shards {
		sh.mu.Lock()
		n := len(sh.values)
		sh.mu.Unlock()
		metrics.UpdateStoreRecordsPerShard(strconv.Itoa(i), n)
	}
	metrics.UpdateCountersTotal(s.Count(context.Background()))
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/microsPerMilli)
}
