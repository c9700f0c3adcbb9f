package cache

import (
	"context"
	"sync"

	"github.com/couchcryptid/property-distress-service/internal/domain"
)

// MemoryStore is an in-process ResolutionCache. With MaxEntries > 0 it evicts
// the least recently used entry; otherwise it grows without bound.
type MemoryStore struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.CacheEntry
	prev  *entry
	next  *entry
}

// NewMemoryStore creates an in-memory store. maxEntries <= 0 disables eviction.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *MemoryStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *MemoryStore) Put(_ context.Context, value domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[value.Key]; ok {
		e.value = value
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: value.Key, value: value}
	c.entries[value.Key] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *MemoryStore) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
	return nil
}

func (c *MemoryStore) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *MemoryStore) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *MemoryStore) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *MemoryStore) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
