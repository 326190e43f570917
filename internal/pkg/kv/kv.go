// Package kv is the key-value port the order store persists through, plus
// the in-memory and Redis adapters. Disk-backed adapters live in the sqlite
// and filekv subpackages.
//
// Every Set must replace the whole value atomically: a concurrent or later
// Get sees either the previous value or the new one, never a partial write.
package kv

import (
	"context"
	"fmt"
	"time"
)

type Store interface {
	// Set stores value under key. A zero ttl means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil, nil when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key joins a namespace, an operation and an id, e.g. "pos:cart:1234".
func Key(namespace, operation, id string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, id)
}

// nowFunc is swapped in tests that need to move the clock.
var nowFunc = time.Now
