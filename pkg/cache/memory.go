package cache

import (
	"context"
	"sync"
	"time"
)

// Node represents a doubly linked list node
type Node struct {
	Key       string
	Value     string
	ExpiresAt time.Time
	Prev      *Node
	Next      *Node
}

// MemoryCache is a thread-safe in-process LRU cache with per-entry TTL.
// It serves the same contract as RedisCache for single-instance deployments
// and tests; eviction happens on capacity pressure or lazily on expired reads.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*Node
	head     *Node // most recently used
	tail     *Node // least recently used
}

// NewMemoryCache creates a cache with given capacity
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1000 // default
	}

	c := &MemoryCache{
		capacity: capacity,
		cache:    make(map[string]*Node, capacity),
	}

	// Initialize dummy head and tail
	c.head = &Node{}
	c.tail = &Node{}
	c.head.Next = c.tail
	c.tail.Prev = c.head

	return c
}

// Get retrieves a live value and marks it as recently used. Expired entries
// are evicted and reported as a miss.
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, exists := c.cache[key]
	if !exists {
		return "", ErrCacheMiss
	}
	if time.Now().After(node.ExpiresAt) {
		c.removeNode(node)
		delete(c.cache, key)
		return "", ErrCacheMiss
	}

	// Move to front (most recently used)
	c.moveToFront(node)
	return node.Value, nil
}

// Set adds or updates a key-value pair with the given TTL.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	// If key exists, update value and move to front
	if node, exists := c.cache[key]; exists {
		node.Value = value
		node.ExpiresAt = expiresAt
		c.moveToFront(node)
		return nil
	}
	// If key is new:
	if len(c.cache) >= c.capacity {
		c.evictTail()
	}
	newNode := &Node{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
	}
	c.addToFront(newNode)
	c.cache[key] = newNode
	return nil
}

// Delete removes a specific key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, exists := c.cache[key]
	if !exists {
		return nil
	}
	c.removeNode(node)
	delete(c.cache, key)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// moveToFront moves a node to the head (most recent)
func (c *MemoryCache) moveToFront(node *Node) {
	c.removeNode(node)
	c.addToFront(node)
}

// removeNode removes a node from the list (doesn't delete from map)
func (c *MemoryCache) removeNode(node *Node) {
	node.Prev.Next = node.Next
	node.Next.Prev = node.Prev
}

// addToFront adds a node right after the dummy head
func (c *MemoryCache) addToFront(node *Node) {
	headNext := c.head.Next

	node.Next = headNext
	node.Prev = c.head

	c.head.Next = node
	headNext.Prev = node
}

// evictTail removes the least recently used item
func (c *MemoryCache) evictTail() {
	lru := c.tail.Prev

	if lru == c.head {
		return
	}
	c.removeNode(lru)
	delete(c.cache, lru.Key)
}
