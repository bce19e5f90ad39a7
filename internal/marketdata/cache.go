package marketdata

import (
	"container/list"
	"sync"
	"time"
)

// Entry is a cached payload with its bookkeeping timestamps.
type Entry struct {
	Key       string
	Value     any
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Stats holds cache counters for the system status endpoint.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	StaleHits uint64 `json:"stale_hits"`
	Evictions uint64 `json:"evictions"`
}

// TTLCache is a concurrency-safe key->value store with per-entry expiration.
// Get returns only fresh entries; GetStale ignores expiry and exists solely
// for the coordinator's failure fallback. Writes are last-write-wins.
//
// The cache is bounded: once maxEntries is reached the least recently used
// entry is evicted, keeping memory flat in long-running deployments.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element // value: *Entry
	lru        *list.List               // front = most recently used
	maxEntries int

	hits      uint64
	misses    uint64
	staleHits uint64
	evictions uint64

	now func() time.Time // swappable for tests
}

// NewTTLCache creates a cache bounded to maxEntries.
func NewTTLCache(maxEntries int) *TTLCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &TTLCache{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the value for key if a fresh entry exists. An expired entry is
// a miss even though it physically remains until purged or evicted.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*Entry)
	if !c.now().Before(entry.ExpiresAt) {
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.hits++
	return entry.Value, true
}

// GetStale returns whatever is present for key regardless of expiry. Used
// only as a last-resort fallback when the upstream fetch fails: stale data
// is better than no data.
func (c *TTLCache) GetStale(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.staleHits++
	return elem.Value.(*Entry).Value, true
}

// Put stores value under key with the given TTL, replacing any previous
// entry. At most one entry exists per key; newest write wins.
func (c *TTLCache) Put(key string, value any, ttl time.Duration) {
	now := c.now()
	c.put(key, value, now, now.Add(ttl))
}

// Restore inserts an entry with explicit timestamps. Snapshot warm-starts
// use it to seed already-expired entries that only the stale path can see.
func (c *TTLCache) Restore(key string, value any, storedAt, expiresAt time.Time) {
	c.put(key, value, storedAt, expiresAt)
}

func (c *TTLCache) put(key string, value any, storedAt, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Value = value
		entry.StoredAt = storedAt
		entry.ExpiresAt = expiresAt
		c.lru.MoveToFront(elem)
		return
	}

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	entry := &Entry{Key: key, Value: value, StoredAt: storedAt, ExpiresAt: expiresAt}
	c.entries[key] = c.lru.PushFront(entry)
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *TTLCache) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*Entry)
	c.lru.Remove(elem)
	delete(c.entries, entry.Key)
	c.evictions++
}

// PurgeExpired removes entries whose expiry is older than now-grace and
// returns the number removed. The grace period keeps recently expired
// entries around so the stale fallback still works between purges.
func (c *TTLCache) PurgeExpired(grace time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-grace)
	removed := 0

	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*Entry)
		if entry.ExpiresAt.Before(cutoff) {
			c.lru.Remove(elem)
			delete(c.entries, entry.Key)
			removed++
		}
		elem = prev
	}

	return removed
}

// Items returns a copy of all entries, fresh and stale. Used by the
// snapshot writer.
func (c *TTLCache) Items() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Entry, 0, len(c.entries))
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		items = append(items, *elem.Value.(*Entry))
	}
	return items
}

// Stats returns a snapshot of the cache counters.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		StaleHits: c.staleHits,
		Evictions: c.evictions,
	}
}
