package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[string](2, time.Minute)

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	if v, ok := c.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	// "b" is now least recently used
	c.Set(ctx, "c", "3")
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Set(ctx, "a", "updated")
	if v, _ := c.Get(ctx, "a"); v != "updated" {
		t.Errorf("Get(a) after overwrite = %q", v)
	}

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected a to be deleted")
	}

	c.Purge(ctx)
	if c.Size() != 0 {
		t.Errorf("Size() after purge = %d", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "x", 1)
	c.Set(ctx, "y", 2)
	now = now.Add(30 * time.Second)
	c.Set(ctx, "z", 3)

	now = now.Add(45 * time.Second)
	if _, ok := c.Get(ctx, "x"); ok {
		t.Error("expected x to be expired")
	}

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1 (y)", n)
	}
	if v, ok := c.Get(ctx, "z"); !ok || v != 3 {
		t.Errorf("Get(z) = %d, %v", v, ok)
	}
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	// a second Stop is a no-op
	m.Stop()
}

func TestRedisCache_UnreachableServerIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache[map[string]int](client, "finadvisor:test:", time.Minute)
	c.Set(ctx, "k", map[string]int{"a": 1})
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
	c.Delete(ctx, "k")
	c.Purge(ctx)

	if _, err := NewRedisClient(ctx, RedisSettings{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestRedisCache_Key(t *testing.T) {
	c := NewRedisCache[int](nil, "finadvisor:summary:", time.Minute)
	if got := c.key("2025-01-01_2025-01-31"); got != "finadvisor:summary:2025-01-01_2025-01-31" {
		t.Errorf("key() = %q", got)
	}
}
