// Package provider defines the byte store behind the persisted cache tier.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. The persisted tier
// keeps its own {value, expiry} envelope inside those bytes and checks expiry at
// read time, so a provider's own TTL is only a storage-reclamation hint.
package provider

import (
	"context"
	"errors"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry). May ignore
	// cost if unsupported. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Driver names accepted by configuration.
const (
	DriverSQLite    = "sqlite"
	DriverRedis     = "redis"
	DriverBigCache  = "bigcache"
	DriverRistretto = "ristretto"
	DriverNone      = "none"
)

// ErrClosed is returned by providers used after Close.
var ErrClosed = errors.New("provider: closed")
