// Package lru provides a size-bounded least-recently-used map.
package lru

import "container/list"

// Cache is a size-bounded map with O(1) get/add and least-recently-used
// eviction. It is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	cap int
	ll  *list.List
	m   map[K]*list.Element
}

type node[K comparable, V any] struct {
	k K
	v V
}

// New creates a cache holding at most capacity entries; capacity <= 0 means 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}

	return &Cache[K, V]{cap: capacity, ll: list.New(), m: make(map[K]*list.Element, capacity)}
}

// Get returns the value for k and marks it most recently used.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	e, ok := c.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(e)

	return e.Value.(*node[K, V]).v, true
}

// Add inserts or replaces k, evicting the least recently used entry when full.
func (c *Cache[K, V]) Add(k K, v V) {
	if e, ok := c.m[k]; ok {
		e.Value.(*node[K, V]).v = v
		c.ll.MoveToFront(e)

		return
	}

	c.m[k] = c.ll.PushFront(&node[K, V]{k: k, v: v})
	if c.ll.Len() > c.cap {
		if tail := c.ll.Back(); tail != nil {
			c.ll.Remove(tail)
			delete(c.m, tail.Value.(*node[K, V]).k)
		}
	}
}

// Remove deletes k.
func (c *Cache[K, V]) Remove(k K) {
	if e, ok := c.m[k]; ok {
		c.ll.Remove(e)
		delete(c.m, k)
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return c.ll.Len()
}
