package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSliding(ttl time.Duration, max int) (*Sliding[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewSliding[string](ttl, max)
	c.now = clock.now
	return c, clock
}

func TestSlidingExpiresAfterIdle(t *testing.T) {
	c, clock := newTestSliding(30*time.Minute, 0)
	c.Set("id-1", "u_1")

	clock.advance(20 * time.Minute)
	if v, ok := c.Get("id-1"); !ok || v != "u_1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	// the read above slid the expiry
	clock.advance(20 * time.Minute)
	if _, ok := c.Get("id-1"); !ok {
		t.Fatalf("expected hit after sliding")
	}
	clock.advance(31 * time.Minute)
	if _, ok := c.Get("id-1"); ok {
		t.Fatalf("expected miss after idle ttl")
	}
}

func TestSlidingEvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestSliding(time.Hour, 2)
	c.Set("a", "1")
	clock.advance(time.Second)
	c.Set("b", "2")
	clock.advance(time.Second)
	c.Get("a")
	clock.advance(time.Second)
	c.Set("c", "3")

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should have survived")
	}
}

func TestSlidingSweepRemovesExpired(t *testing.T) {
	c, clock := newTestSliding(time.Minute, 0)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.advance(2 * time.Minute)
	c.Set("c", "3")
	if c.Len() != 1 {
		t.Fatalf("expected sweep to leave 1 entry, got %d", c.Len())
	}
}

func TestSlidingDelete(t *testing.T) {
	c, _ := newTestSliding(time.Minute, 0)
	c.Set("a", "1")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestRedisTier(t *testing.T) {
	addr := os.Getenv("ITEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ITEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()

	tier := NewRedisTier(rdb, "devhabit:test:", time.Minute)
	if _, ok, err := tier.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := tier.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	defer tier.Delete(ctx, "k")
	v, ok, err := tier.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("unexpected get: %q %v %v", v, ok, err)
	}
	ttl, err := rdb.TTL(ctx, "devhabit:test:k").Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected ttl to be set, got %v %v", ttl, err)
	}
}
