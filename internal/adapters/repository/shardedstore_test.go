package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/counters/internal/domain/counter"
)

func TestShardedStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	c, err := store.Create(ctx, "foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "foo" || c.Value != 0 {
		t.Errorf("expected foo=0, got %+v", c)
	}

	if _, err := store.Create(ctx, "foo"); !errors.Is(err, counter.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	c, err = store.Increment(ctx, "foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Value != 1 {
		t.Errorf("expected value 1 after increment, got %d", c.Value)
	}

	c, err = store.Get(ctx, "foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Value != 1 {
		t.Errorf("expected value 1 on read, got %d", c.Value)
	}

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if err := store.Delete(ctx, "foo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "foo"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0 after delete, got %d", count)
	}
}

func TestShardedStore_ConflictKeepsValue(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	_, _ = store.Create(ctx, "bar")
	_, _ = store.Increment(ctx, "bar")
	_, _ = store.Increment(ctx, "bar")

	if _, err := store.Create(ctx, "bar"); !errors.Is(err, counter.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	c, _ := store.Get(ctx, "bar")
	if c.Value != 2 {
		t.Errorf("conflicting create must not reset value, got %d", c.Value)
	}
}

func TestShardedStore_MissingNames(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Increment(ctx, "nope"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("Increment: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("Increment on a missing name must not create it, got %v", err)
	}
	if err := store.Delete(ctx, "nope"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestShardedStore_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	_, _ = store.Create(ctx, "delete")
	if err := store.Delete(ctx, "delete"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "delete"); !errors.Is(err, counter.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestShardedStore_RecreateAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	_, _ = store.Create(ctx, "phoenix")
	_, _ = store.Increment(ctx, "phoenix")
	_ = store.Delete(ctx, "phoenix")

	c, err := store.Create(ctx, "phoenix")
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if c.Value != 0 {
		t.Errorf("recreated counter should start at 0, got %d", c.Value)
	}
}

func TestShardedStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx, WithShardCount(3))
	defer func() { _ = store.Close() }()

	for _, name := range []string{"c", "a", "b"} {
		if _, err := store.Create(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	_, _ = store.Increment(ctx, "b")

	snap := store.Snapshot(ctx)
	if len(snap) != 3 {
		t.Fatalf("expected 3 counters, got %d", len(snap))
	}
	want := []counter.Counter{{Name: "a"}, {Name: "b", Value: 1}, {Name: "c"}}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("snapshot[%d]: expected %+v, got %+v", i, want[i], snap[i])
		}
	}
}

func TestShardedStore_Options(t *testing.T) {
	ctx := context.Background()

	store := NewShardedStore(ctx, WithShardCount(4), WithMetricsUpdateInterval(10*time.Millisecond))
	defer func() { _ = store.Close() }()
	if store.ShardCount() != 4 {
		t.Errorf("expected 4 shards, got %d", store.ShardCount())
	}

	fallback := NewShardedStore(ctx, WithShardCount(0), WithMetricsUpdateInterval(-1))
	defer func() { _ = fallback.Close() }()
	if fallback.ShardCount() != defaultShardCount {
		t.Errorf("expected default shard count, got %d", fallback.ShardCount())
	}
	if fallback.metricsUpdateInterval != defaultMetricsUpdateInterval {
		t.Errorf("expected default interval, got %v", fallback.metricsUpdateInterval)
	}
}

func TestShardedStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()

	for _, shards := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("shards=%d", shards), func(t *testing.T) {
			store := NewShardedStore(ctx, WithShardCount(shards))
			defer func() { _ = store.Close() }()

			const (
				workers   = 32
				perWorker = 250
			)
			names := []string{"hot", "warm", "cold"}
			for _, n := range names {
				_, _ = store.Create(ctx, n)
			}

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if _, err := store.Increment(ctx, names[(w+i)%len(names)]); err != nil {
							t.Errorf("increment: %v", err)
							return
						}
						if i%50 == 0 {
							_ = store.Snapshot(ctx)
						}
					}
				}(w)
			}
			wg.Wait()

			var total int64
			for _, n := range names {
				c, err := store.Get(ctx, n)
				if err != nil {
					t.Fatalf("get %s: %v", n, err)
				}
				total += c.Value
			}
			if total != workers*perWorker {
				t.Errorf("lost updates: expected %d, got %d", workers*perWorker, total)
			}
		})
	}
}

func TestShardedStore_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewShardedStore(ctx)
	defer func() { _ = store.Close() }()

	const racers = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, "contested")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, counter.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 || conflicts != racers-1 {
		t.Errorf("expected exactly one winner, got winners=%d conflicts=%d", winners, conflicts)
	}
}

func TestShardedStore_MetricsUpdaterStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewShardedStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	_, _ = store.Create(ctx, "tick")

	time.Sleep(10 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		_ = store.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after context cancellation")
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
