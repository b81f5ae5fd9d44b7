package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)

	if _, ok := c.Get("month"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("month", "a")
	c.Set("month", "b")
	if v, ok := c.Get("month"); !ok || v != "b" {
		t.Fatalf("Get = %q, %v; want b, true", v, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size = %d, want 1", c.Size())
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("Stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("month", "a")
	c.Set("year", "b")

	clock.Advance(59 * time.Second)
	if _, ok := c.Get("month"); !ok {
		t.Fatal("entry should still be fresh")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("month"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d, want 0", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("month", "1")
	c.Set("year", "2")
	c.Get("month")
	c.Set("all", "3")

	if _, ok := c.Get("year"); ok {
		t.Fatal("year should have been evicted")
	}
	if _, ok := c.Get("month"); !ok {
		t.Fatal("month was used recently and should remain")
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("month", "1")
	c.Set("year", "2")

	c.Delete("month")
	if _, ok := c.Get("month"); ok {
		t.Fatal("deleted key should miss")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("Size after Purge = %d, want 0", c.Size())
	}
	c.Set("all", "3")
	if _, ok := c.Get("all"); !ok {
		t.Fatal("cache should be usable after Purge")
	}
}

func TestLRUCache_ZeroTTLDisables(t *testing.T) {
	c, _ := newTestCache(4, 0)
	c.Set("month", "1")
	if _, ok := c.Get("month"); ok {
		t.Fatal("zero TTL cache must never hit")
	}
}

func TestJanitor(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("month", "1")
	clock.Advance(2 * time.Minute)

	j := NewJanitor(nil)
	j.Register(c)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
