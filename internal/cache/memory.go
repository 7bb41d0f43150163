package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryTokenCache es el gemelo en proceso de RedisTokenCache. Útil para
// tests y despliegues de una sola instancia sin redis.
type MemoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	byUser  map[string]map[string]struct{}
	now     func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]memoryEntry),
		byUser:  make(map[string]map[string]struct{}),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *MemoryTokenCache) Lookup(_ context.Context, rawToken string) (Snapshot, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return Snapshot{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenKey(rawToken)
	entry, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.remove(key, entry.snap.ID)
		return Snapshot{}, false
	}
	return entry.snap, true
}

func (c *MemoryTokenCache) Store(_ context.Context, rawToken string, snap Snapshot, ttl time.Duration) bool {
	if strings.TrimSpace(rawToken) == "" || ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenKey(rawToken)
	c.entries[key] = memoryEntry{snap: snap, expiresAt: c.now().Add(ttl)}
	if snap.ID != "" {
		if c.byUser[snap.ID] == nil {
			c.byUser[snap.ID] = make(map[string]struct{})
		}
		c.byUser[snap.ID][key] = struct{}{}
	}
	return true
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, rawToken string) bool {
	if strings.TrimSpace(rawToken) == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenKey(rawToken)
	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(key, entry.snap.ID)
	return true
}

func (c *MemoryTokenCache) InvalidateAll(_ context.Context, userID string) int {
	if strings.TrimSpace(userID) == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.byUser[userID]
	count := 0
	for key := range keys {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			count++
		}
	}
	delete(c.byUser, userID)
	return count
}

// remove asume que el mutex ya está tomado.
func (c *MemoryTokenCache) remove(key, userID string) {
	delete(c.entries, key)
	if userID != "" {
		if keys := c.byUser[userID]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byUser, userID)
			}
		}
	}
}
