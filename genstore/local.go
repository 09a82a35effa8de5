package genstore

import (
	"context"
	"sync"
	"time"
)

type localGen struct {
	gen    uint64
	bumped time.Time
}

// LocalGenStore keeps generations in this process. It is the default for
// both cache tiers: memory generations never need to outlive the process,
// and a single-user sqlite tier has no other writer to fence.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]localGen
	now  func() time.Time

	stop context.CancelFunc
	done chan struct{}
	once sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

// NewLocalGenStore sweeps every cleanupInterval, forgetting keys not bumped
// within retention. Either duration <= 0 disables the sweeper.
func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{gens: make(map[string]localGen), now: time.Now}
	if cleanupInterval <= 0 || retention <= 0 {
		return s
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stop, s.done = cancel, make(chan struct{})
	go s.sweep(ctx, cleanupInterval, retention)
	return s
}

func (s *LocalGenStore) sweep(ctx context.Context, every, retention time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup(retention)
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[key].gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, key string) (uint64, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gens[key]
	g.gen++
	g.bumped = now
	s.gens[key] = g
	return g.gen, nil
}

// Cleanup forgets generations not bumped within retention. A forgotten key
// reads as gen 0 again: a fill that snapshotted before the bump and is still
// running after retention can then land, and stored entries carrying the
// forgotten generation stay readable.
func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.gens {
		if g.bumped.Before(cutoff) {
			delete(s.gens, k)
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (s *LocalGenStore) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
			<-s.done
		}
	})
	return nil
}
