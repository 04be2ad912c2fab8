package cache

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("fresh", "x")
	c.Set("stale", "y")
	now = now.Add(30 * time.Second)
	c.Set("fresh", "x2") // overwrite refreshes the expiry

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("stale"); ok {
		t.Error("stale entry should have expired")
	}
	if v, ok := c.Get("fresh"); !ok || v != "x2" {
		t.Errorf("fresh = %q, %v", v, ok)
	}

	now = now.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup", c.Size())
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	var c Cache[int] = NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}

	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Purge", c.Size())
	}
	c.Set("d", 4)
	if v, ok := c.Get("d"); !ok || v != 4 {
		t.Error("cache should be usable after Purge")
	}
}

func TestManager(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	now = now.Add(time.Minute)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()

	NewManager().Stop() // never started
}

func TestLRUCache_CleanExpiredKeepsFreshEntries(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(45 * time.Second)
	c.Set("c", 3)
	c.Set("d", 4)
	now = now.Add(30 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired() = %d, want 2", n)
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	for _, key := range []string{"c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should survive cleanup", key)
		}
	}
	// The remaining entries still evict in LRU order.
	c.maxSize = 2
	c.Get("c")
	c.Set("e", 5)
	if _, ok := c.Get("d"); ok {
		t.Error("d should have been evicted")
	}
}
