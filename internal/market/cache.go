package market

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisOpTimeout = 500 * time.Millisecond

// Cache guarda snapshots por clave con vencimiento.
type Cache interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error
}

type memoryEntry struct {
	snap    Snapshot
	expires time.Time
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryCache() Cache {
	return &memoryCache{items: make(map[string]memoryEntry), now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, key string) (Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return Snapshot{}, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.items, key)
		return Snapshot{}, false, nil
	}
	return e.snap, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, snap Snapshot, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryEntry{snap: snap, expires: c.now().Add(ttl)}
	return nil
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisCache struct {
	client redisKVClient
	prefix string
}

func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &redisCache{client: client, prefix: "market:snapshot:"}
}

func (c *redisCache) Get(ctx context.Context, key string) (Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// CachedSource decora una fuente con cache. Los placeholders no se cachean.
// Un error de cache nunca impide consultar la fuente.
type CachedSource struct {
	next   Source
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSource(next Source, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (s *CachedSource) Fetch(ctx context.Context, domain, location string) (Snapshot, error) {
	key := cacheKey(domain, location)
	if s.cache != nil {
		snap, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("market cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return snap, nil
		}
	}

	snap, err := s.next.Fetch(ctx, domain, location)
	if err != nil {
		return Snapshot{}, err
	}
	if s.cache != nil && snap.Source != "placeholder" {
		if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
			s.logger.Warn("market cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snap, nil
}

func cacheKey(domain, location string) string {
	return strings.ToLower(strings.TrimSpace(domain)) + ":" + strings.ToLower(strings.TrimSpace(location))
}
