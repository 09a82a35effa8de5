package cache

// Tier names passed to Hooks.
const (
	TierMemory    = "memory"
	TierPersisted = "persisted"
)

// Hooks lightweight callbacks for cache events.
// Implementations MUST be cheap and non-blocking; they run on read paths.
type Hooks interface {
	// A valid entry was found.
	Hit(tier, key string)
	// No entry was found.
	Miss(tier, key string)
	// An entry was found but its TTL had passed.
	Expired(tier, key string)

	// A persisted entry was deleted on read.
	// reason ∈ {"corrupt", "too_large", "gen_mismatch"}
	SelfHeal(key, reason string)

	// A fill was skipped because the key was cleared after the snapshot.
	StaleWriteSkipped(tier, key string)

	// Provider returned ok=false on Set (backpressure/admission).
	ProviderSetRejected(key string)

	// A key was cleared (explicit invalidation).
	Invalidated(tier, key string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) Hit(string, string)               {}
func (NopHooks) Miss(string, string)              {}
func (NopHooks) Expired(string, string)           {}
func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) StaleWriteSkipped(string, string) {}
func (NopHooks) ProviderSetRejected(string)       {}
func (NopHooks) Invalidated(string, string)       {}

// Tee fans every event out to all hooks in order.
type Tee []Hooks

var _ Hooks = Tee(nil)

func (t Tee) Hit(tier, k string) {
	for _, h := range t {
		h.Hit(tier, k)
	}
}

func (t Tee) Miss(tier, k string) {
	for _, h := range t {
		h.Miss(tier, k)
	}
}

func (t Tee) Expired(tier, k string) {
	for _, h := range t {
		h.Expired(tier, k)
	}
}

func (t Tee) SelfHeal(k, r string) {
	for _, h := range t {
		h.SelfHeal(k, r)
	}
}

func (t Tee) StaleWriteSkipped(tier, k string) {
	for _, h := range t {
		h.StaleWriteSkipped(tier, k)
	}
}

func (t Tee) ProviderSetRejected(k string) {
	for _, h := range t {
		h.ProviderSetRejected(k)
	}
}

func (t Tee) Invalidated(tier, k string) {
	for _, h := range t {
		h.Invalidated(tier, k)
	}
}
