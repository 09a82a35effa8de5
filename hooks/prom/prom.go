// Package promhook counts cache events in Prometheus counters labelled by
// tier and event. Keys are never used as labels.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/unihub/cache"
)

type Hooks struct {
	events   *prometheus.CounterVec
	selfHeal *prometheus.CounterVec
}

var _ cache.Hooks = (*Hooks)(nil)

// New registers the collectors on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "unihub"
	}
	h := &Hooks{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache events by tier and kind.",
		}, []string{"tier", "event"}),
		selfHeal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "self_heal_total",
			Help:      "Persisted entries deleted on read, by reason.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{h.events, h.selfHeal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) inc(tier, event string) { h.events.WithLabelValues(tier, event).Inc() }

func (h *Hooks) Hit(tier, _ string)     { h.inc(tier, "hit") }
func (h *Hooks) Miss(tier, _ string)    { h.inc(tier, "miss") }
func (h *Hooks) Expired(tier, _ string) { h.inc(tier, "expired") }

func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeal.WithLabelValues(reason).Inc()
}

func (h *Hooks) StaleWriteSkipped(tier, _ string) { h.inc(tier, "stale_write_skipped") }
func (h *Hooks) ProviderSetRejected(string)       { h.inc(cache.TierPersisted, "provider_set_rejected") }
func (h *Hooks) Invalidated(tier, _ string)       { h.inc(tier, "invalidated") }
