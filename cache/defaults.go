package cache

import "time"

const (
	// DefaultMemoryTTL applies to Memory.Set with ttl 0.
	DefaultMemoryTTL = 5 * time.Minute
	// DefaultPersistentTTL applies to Persistent.SetWithExpiry with ttl 0.
	DefaultPersistentTTL = time.Hour

	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
