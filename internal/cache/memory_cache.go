package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache is an in-process CacheService used when no redis URL is configured and in tests.
// Values are stored JSON-encoded so callers see the same copy semantics as with redis.
type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: ttlcache.New[string, []byte](ttlcache.WithDisableTouchOnHit[string, []byte]()),
	}
}

// Start evicts expired entries until Stop is called. Expired entries are never served either way.
func (m *MemoryCache) Start() { m.items.Start() }
func (m *MemoryCache) Stop()  { m.items.Stop() }

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, data, ttl)
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	item := m.items.Get(key)
	if item == nil || item.IsExpired() {
		return ErrCacheMiss
	}
	return json.Unmarshal(item.Value(), dest)
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// DeletePattern supports a single trailing '*' wildcard
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for _, k := range m.items.Keys() {
		if k == pattern || (wildcard && strings.HasPrefix(k, prefix)) {
			m.items.Delete(k)
		}
	}
	return nil
}
