package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[[]int](10, time.Minute).WithClock(clock.Now)

	c.Set("a", []int{1})
	if v, ok := c.Get("a"); !ok || len(v) != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to be expired")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size=%d", c.Size())
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "A")
	c.Set("b", "B")
	c.Get("a")
	c.Set("c", "C")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("c should be cached")
	}
}

func TestLRUCachePurgeAndClean(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute).WithClock(clock.Now)
	c.Set("old", 1)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("new", 2)
	clock.t = clock.t.Add(45 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if n := c.Purge(); n != 1 {
		t.Fatalf("expected purge of 1 entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("cache should be empty after purge")
	}
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewLRUCache[int](10, time.Second).WithClock(clock.Now)
	b := NewLRUCache[string](10, time.Second).WithClock(clock.Now)
	a.Set("x", 1)
	b.Set("y", "z")
	clock.t = clock.t.Add(time.Minute)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("expected 2 entries swept, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
	m.Wait()
}
