// Package recache provides an LRU cache of compiled regular expressions.
package recache

import (
	"container/list"
	"regexp"
	"sync"
)

// DefaultSize is the default maximum number of cached expressions.
const DefaultSize = 256

// Cache is an LRU cache of compiled expressions keyed by source text.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int
}

type entry struct {
	expr string
	re   *regexp.Regexp
}

// New returns a cache holding at most maxSize expressions. A non-positive
// size uses DefaultSize.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the compiled form of expr, compiling and caching it on a miss.
func (c *Cache) Get(expr string) (*regexp.Regexp, error) {
	c.mu.Lock()
	if elem, ok := c.entries[expr]; ok {
		c.lru.MoveToFront(elem)
		re := elem.Value.(*entry).re
		c.mu.Unlock()
		return re, nil
	}
	c.mu.Unlock()

	// Compile outside the lock.
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have added it while we were compiling.
	if elem, ok := c.entries[expr]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*entry).re, nil
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).expr)
		}
	}
	c.entries[expr] = c.lru.PushFront(&entry{expr: expr, re: re})
	return re, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
