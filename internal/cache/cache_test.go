package cache

import (
	"sync"
	"testing"
	"time"
)

func TestResponseCache_GetSet(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("/company/facts?ticker=AAPL", []byte(`{"company_facts":{"name":"Apple Inc."}}`))

	got, ok := c.Get("/company/facts?ticker=AAPL")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `{"company_facts":{"name":"Apple Inc."}}` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestResponseCache_Miss(t *testing.T) {
	c := New(5*time.Second, 100)

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected cache miss for nonexistent key")
	}
}

func TestResponseCache_TTLExpiration(t *testing.T) {
	c := New(50*time.Millisecond, 100)

	c.Set("/prices/snapshot?ticker=AAPL", []byte("data"))

	// Should be found immediately
	if _, ok := c.Get("/prices/snapshot?ticker=AAPL"); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	// Wait for expiry
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("/prices/snapshot?ticker=AAPL"); ok {
		t.Error("expected cache miss after TTL expiration")
	}
}

func TestResponseCache_QueryStringDistinguishesKeys(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("/news?ticker=AAPL&limit=5", []byte(`{"limit":5}`))
	c.Set("/news?ticker=AAPL&limit=10", []byte(`{"limit":10}`))

	got, ok := c.Get("/news?ticker=AAPL&limit=5")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `{"limit":5}` {
		t.Errorf("query string should distinguish cache entries, got %s", got)
	}
}

func TestResponseCache_InvalidatePrefix(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("/prices/snapshot?ticker=AAPL", []byte("data"))
	c.Set("/prices/snapshot?ticker=MSFT", []byte("data"))
	c.Set("/company/facts?ticker=AAPL", []byte("data"))

	c.InvalidatePrefix("/prices")

	if _, ok := c.Get("/prices/snapshot?ticker=AAPL"); ok {
		t.Error("expected /prices entries to be invalidated")
	}
	if _, ok := c.Get("/prices/snapshot?ticker=MSFT"); ok {
		t.Error("expected /prices entries to be invalidated")
	}
	if _, ok := c.Get("/company/facts?ticker=AAPL"); !ok {
		t.Error("expected /company entry to remain in cache")
	}
}

func TestResponseCache_MaxEntries(t *testing.T) {
	c := New(5*time.Second, 3)

	c.Set("key1", []byte("data"))
	c.Set("key2", []byte("data"))
	c.Set("key3", []byte("data"))

	for _, k := range []string{"key1", "key2", "key3"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be in cache", k)
		}
	}

	// Adding a 4th should evict the oldest (key1)
	c.Set("key4", []byte("data"))

	if _, ok := c.Get("key1"); ok {
		t.Error("expected key1 to be evicted (oldest entry)")
	}
	if _, ok := c.Get("key4"); !ok {
		t.Error("expected key4 to be in cache")
	}
}

func TestResponseCache_OverwriteExistingKey(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("key", []byte("v1"))
	c.Set("key", []byte("v2"))

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "v2" {
		t.Errorf("expected updated body v2, got %s", got)
	}
}

func TestResponseCache_ThreadSafety(t *testing.T) {
	c := New(5*time.Second, 1000)

	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set("/prices?ticker="+string(rune('A'+n%26)), []byte("data"))
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Get("/prices?ticker=" + string(rune('A'+n%26)))
		}(i)
	}

	// Concurrent invalidations
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.InvalidatePrefix("/prices")
		}()
	}

	wg.Wait()
	// If we get here without a race condition panic, the test passes
}

// TestResponseCache_MaxEntriesEvictionUnderLoad verifies that the cache never
// exceeds maxEntries even under concurrent writes from many goroutines.
func TestResponseCache_MaxEntriesEvictionUnderLoad(t *testing.T) {
	maxEntries := 50
	c := New(5*time.Second, maxEntries)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set("/item/"+string(rune(n)), []byte("x"))
		}(i)
	}
	wg.Wait()

	c.mu.RLock()
	count := len(c.items)
	c.mu.RUnlock()

	if count > maxEntries {
		t.Errorf("cache exceeded maxEntries: got %d, max %d", count, maxEntries)
	}
}
