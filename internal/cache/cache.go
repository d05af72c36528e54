package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for TTL caching. Implementations are safe
// for concurrent use; stampeding recomputes on a shared miss are
// acceptable.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from an arbitrary identifier
func Key(kind, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "finfact:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}
