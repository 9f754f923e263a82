package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/team-sakkal/caoscan/internal/model"
)

// Cache stores serialized classification replies keyed by sentence.
// CAO documents repeat boilerplate clauses across files; caching spares
// the rate-limited classification endpoint a round-trip per repeat.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// New builds the cache described by cfg, or nil when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return NewMemoryCache(cfg.TTL, 10*time.Minute)
}

// Key builds a cache key for one classification. The model name is part
// of the key: replies from different models are not interchangeable.
func Key(modelName, sentence string) string {
	hash := sha256.Sum256([]byte(modelName + "\x00" + sentence))
	return "caoscan:v1:" + hex.EncodeToString(hash[:])
}
