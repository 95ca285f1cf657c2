package store

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// entryOverhead approximates the bookkeeping cost of one entry
const entryOverhead = 256

type memoryEntry struct {
	key       Handle
	html      string
	expiresAt time.Time
}

func (e *memoryEntry) size() int64 {
	return int64(len(e.html)+len(e.key)) + entryOverhead
}

// MemoryStore is an in-process LRU store bounded by total size, with a
// per-entry TTL. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Handle]*list.Element
	lru     *list.List
	ttl     time.Duration
	maxSize int64
	size    int64
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewMemoryStore creates a store holding at most maxBytes of markup
func NewMemoryStore(maxBytes int64, ttl time.Duration) *MemoryStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[Handle]*list.Element),
		lru:     list.New(),
		ttl:     ttl,
		maxSize: maxBytes,
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, url, html string) (Handle, error) {
	key := KeyFor(url)
	entry := &memoryEntry{key: key, html: html, expiresAt: m.now().Add(m.ttl)}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		m.removeElement(el)
	}

	// An entry larger than the whole store is not kept
	if entry.size() > m.maxSize {
		log.Debug().Str("key", string(key)).Int64("size_bytes", entry.size()).Msg("Page too large for memory store")
		return key, nil
	}

	for m.size+entry.size() > m.maxSize && m.lru.Len() > 0 {
		m.evictOldest()
	}

	m.entries[key] = m.lru.PushFront(entry)
	m.size += entry.size()

	log.Debug().Str("key", string(key)).Int64("size_bytes", entry.size()).Msg("Stored page")
	return key, nil
}

func (m *MemoryStore) Load(_ context.Context, h Handle) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[h]
	if !ok {
		m.misses++
		return "", false, nil
	}

	entry := el.Value.(*memoryEntry)
	if m.now().After(entry.expiresAt) {
		m.removeElement(el)
		m.misses++
		return "", false, nil
	}

	m.lru.MoveToFront(el)
	m.hits++
	return entry.html, true, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Handle]*list.Element)
	m.lru.Init()
	m.size = 0
	return nil
}

// Len returns the number of stored pages
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Stats returns entry and hit counters
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	hitRate := 0.0
	if total := m.hits + m.misses; total > 0 {
		hitRate = float64(m.hits) / float64(total) * 100
	}
	return map[string]interface{}{
		"entries":    m.lru.Len(),
		"size_bytes": m.size,
		"max_size":   m.maxSize,
		"hits":       m.hits,
		"misses":     m.misses,
		"hit_rate":   hitRate,
	}
}

// must be called with the lock held
func (m *MemoryStore) evictOldest() {
	el := m.lru.Back()
	if el == nil {
		return
	}
	log.Debug().Str("key", string(el.Value.(*memoryEntry).key)).Msg("Evicted from memory store (LRU)")
	m.removeElement(el)
}

// must be called with the lock held
func (m *MemoryStore) removeElement(el *list.Element) {
	entry := el.Value.(*memoryEntry)
	m.lru.Remove(el)
	delete(m.entries, entry.key)
	m.size -= entry.size()
}
