// Package cache implements the client's two cache tiers.
//
// Memory is an in-process map with per-entry TTL, checked lazily at read time.
// Persistent stores {value, expiry} envelopes in a provider.Provider (SQLite
// file, Redis, ...) so entries survive restarts; decode failures and expired
// envelopes are deleted on read and reported as misses.
//
// Both tiers fence network fills with per-key generations:
//
//	obs := mem.Snapshot("communities") // before the HTTP call
//	list := fetch()
//	mem.SetWithGen("communities", list, obs, 0) // skipped if Clear ran meanwhile
//
// No caller may assume presence: every read path needs a network fallback.
package cache
