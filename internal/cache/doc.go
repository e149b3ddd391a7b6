// Package cache provides a generic least-recently-used cache.
//
//	c := cache.New[string, int](64)
//	c.Put("key", 42)
//	v, ok := c.Get("key")
//
// LRU is safe for concurrent use and must not be copied after creation.
package cache
