package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testClock lets tests advance cache time without sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(cfg Config) (*Cache, *testClock) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(cfg)
	c.now = clock.Now
	return c, clock
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})

	c.Set("metrics:ns/pod", 42)

	value, ok := c.Get("metrics:ns/pod")
	if !ok {
		t.Fatal("expected hit")
	}
	if value != 42 {
		t.Errorf("value = %v", value)
	}

	if _, ok := c.Get("metrics:ns/other"); ok {
		t.Error("unexpected hit for absent key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(Config{DefaultTTL: 30 * time.Second})

	c.Set("k", "v")
	clock.Advance(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not swept, len = %d", c.Len())
	}
}

func TestCache_PrefixTTL(t *testing.T) {
	c, clock := newTestCache(Config{
		DefaultTTL: 60 * time.Second,
		PrefixTTL:  map[string]time.Duration{"metrics": 10 * time.Second},
	})

	c.Set("metrics:ns/pod", 1)
	c.Set("namespaces", 2)

	clock.Advance(15 * time.Second)

	if _, ok := c.Get("metrics:ns/pod"); ok {
		t.Error("metrics entry should use the 10s prefix TTL")
	}
	if _, ok := c.Get("namespaces"); !ok {
		t.Error("namespaces entry should still live under the default TTL")
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})
	calls := 0

	compute := func(ctx context.Context) (interface{}, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		value, err := c.GetOrCompute(context.Background(), "k", compute)
		if err != nil {
			t.Fatalf("GetOrCompute failed: %v", err)
		}
		if value != "computed" {
			t.Errorf("value = %v", value)
		}
	}

	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestCache_GetOrCompute_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})
	boom := errors.New("boom")
	calls := 0

	_, err := c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	value, err := c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (interface{}, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("second GetOrCompute failed: %v", err)
	}
	if value != "ok" {
		t.Errorf("value = %v", value)
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2", calls)
	}
}

func TestCache_GetOrCompute_Stampede(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})

	var calls atomic.Int64
	gate := make(chan struct{})

	compute := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := c.GetOrCompute(context.Background(), "k", compute)
			if err != nil {
				t.Errorf("GetOrCompute failed: %v", err)
				return
			}
			results[i] = value
		}(i)
	}

	// Give the goroutines a moment to pile onto the same flight, then
	// release the single compute.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("compute called %d times, want 1", got)
	}
	for i, value := range results {
		if value != "shared" {
			t.Errorf("results[%d] = %v", i, value)
		}
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})

	c.Set("metrics:a", 1)
	c.Set("metrics:b", 2)
	c.Set("namespaces", 3)

	c.Invalidate("metrics:a")
	if _, ok := c.Get("metrics:a"); ok {
		t.Error("metrics:a should be gone")
	}
	if _, ok := c.Get("metrics:b"); !ok {
		t.Error("metrics:b should survive")
	}

	if removed := c.InvalidatePrefix("metrics"); removed != 1 {
		t.Errorf("InvalidatePrefix removed %d, want 1", removed)
	}

	if removed := c.InvalidateAll(); removed != 1 {
		t.Errorf("InvalidateAll removed %d, want 1", removed)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after InvalidateAll", c.Len())
	}
}

func TestCache_Stats(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 2/1", hits, misses)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(Config{DefaultTTL: 30 * time.Second})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i)
				c.Get(key)
				if j%25 == 0 {
					c.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()
}
