package cache

import "testing"

func TestLRU_GetPut(t *testing.T) {
	c := New[string, int](2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache hit")
	}
	c.Put("a", 1)
	c.Put("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	// b is now the oldest.
	c.Put("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v after eviction", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	hits, misses := c.Stats()
	if hits != 3 || misses != 2 {
		t.Errorf("Stats = %d hits %d misses, want 3 and 2", hits, misses)
	}
}

func TestLRU_Overwrite(t *testing.T) {
	c := New[int, string](2)
	c.Put(1, "x")
	c.Put(2, "y")
	c.Put(1, "z") // refreshes 1
	c.Put(3, "w") // evicts 2
	if v, _ := c.Get(1); v != "z" {
		t.Errorf("Get(1) = %q, want z", v)
	}
	if _, ok := c.Get(2); ok {
		t.Error("2 not evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestNew_MinimumCapacity(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if _, ok := c.Get(2); !ok {
		t.Error("latest entry evicted")
	}
}
