package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should miss")
	}

	c.Set("a", "1")
	if v, found := c.Get("a"); !found || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, found)
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("overwritten value = %q, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // promote a so b is the eviction candidate
	c.Set("c", 3)

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("a should survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("a"); found {
		t.Error("expired entry should miss")
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a") // deleting twice is fine
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 99)

	if removed := c.CleanExpired(); removed != 3 {
		t.Errorf("CleanExpired = %d, want 3", removed)
	}
	if _, found := c.Get("fresh"); !found {
		t.Error("fresh entry should survive cleanup")
	}
}

func TestManagerCleanup(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)

	deadline := time.After(time.Second)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatal("manager never cleaned the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
	m.Stop()
}
