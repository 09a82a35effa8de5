// Package sloghook logs cache events to a *slog.Logger with key redaction
// and per-event sampling. Hit and Miss are not logged.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/unihub/cache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	ExpiredEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	expiredCtr  atomic.Uint64
}

var _ cache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(string, string)  {}
func (h *Hooks) Miss(string, string) {}

func (h *Hooks) Expired(tier, key string) {
	if h.l == nil || !sample(h.opts.ExpiredEvery, &h.expiredCtr) {
		return
	}
	h.l.Debug("unihub.cache.expired",
		"tier", tier,
		"key", h.redact(key))
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("unihub.cache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) StaleWriteSkipped(tier, key string) {
	if h.l == nil {
		return
	}
	h.l.Info("unihub.cache.stale_write_skipped",
		"tier", tier,
		"key", h.redact(key))
}

func (h *Hooks) ProviderSetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("unihub.cache.provider_set_rejected",
		"key", h.redact(key))
}

func (h *Hooks) Invalidated(tier, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("unihub.cache.invalidated",
		"tier", tier,
		"key", h.redact(key))
}
