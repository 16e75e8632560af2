package llm

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/despensa/internal/model"
)

// cacheEntry represents a cached extraction.
type cacheEntry struct {
	expiry time.Time
	action model.Action
}

// extractionCache caches successful extractions by normalized message.
type extractionCache struct {
	entries   map[string]cacheEntry
	stopCh    chan struct{}
	ttl       time.Duration
	mu        sync.RWMutex
	closeOnce sync.Once
}

// newExtractionCache creates a new cache with the specified TTL and starts
// its cleanup goroutine. Close stops it.
func newExtractionCache(ttl time.Duration) *extractionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &extractionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup(min(ttl, 5*time.Minute))

	return cache
}

func cacheKey(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

// get retrieves an extraction if it exists and hasn't expired. The returned
// action does not share memory with the cache.
func (c *extractionCache) get(message string) (model.Action, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[cacheKey(message)]
	if !exists || time.Now().After(entry.expiry) {
		return model.Action{}, false
	}

	action := entry.action
	action.Fields = entry.action.Fields.Clone()
	return action, true
}

// set stores an extraction.
func (c *extractionCache) set(message string, action model.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action.Fields = action.Fields.Clone()
	c.entries[cacheKey(message)] = cacheEntry{
		action: action,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *extractionCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *extractionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *extractionCache) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}
