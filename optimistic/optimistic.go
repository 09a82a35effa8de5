// Package optimistic applies local state changes before the server confirms
// them and restores the previous snapshot when it does not.
//
// The lifecycle is an explicit triple: Apply computes and installs the
// optimistic value, Pending.Commit keeps it, Pending.Revert restores the
// snapshot taken by Apply and notifies. Run wires the three around a call.
package optimistic

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/unihub/logger"
)

type Options[S any] struct {
	// OnChange receives every installed state (optimistic, reverted or Set).
	OnChange func(S)
	// Notify receives the failure after a revert.
	Notify func(error)
	Logger logger.Logger
}

// Updater holds one piece of local state. Safe for concurrent use.
type Updater[S any] struct {
	mu       sync.Mutex
	state    S
	onChange func(S)
	notify   func(error)
	log      logger.Logger
}

func New[S any](initial S, opts Options[S]) *Updater[S] {
	return &Updater[S]{
		state:    initial,
		onChange: opts.OnChange,
		notify:   opts.Notify,
		log:      logger.OrNop(opts.Logger),
	}
}

// State returns the current, possibly optimistic, value.
func (u *Updater[S]) State() S {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Set installs an authoritative value, e.g. after a refetch.
func (u *Updater[S]) Set(s S) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
	u.changed(s)
}

// Apply derives the next state from the current one and installs it.
// A second Apply before the first settles derives from the optimistic value.
func (u *Updater[S]) Apply(mutate func(S) S) *Pending[S] {
	u.mu.Lock()
	before := u.state
	after := mutate(before)
	u.state = after
	u.mu.Unlock()
	u.changed(after)
	return &Pending[S]{u: u, before: before, after: after}
}

// Run applies mutate, then calls call. On error the snapshot is restored,
// Notify fires and the error is returned.
func (u *Updater[S]) Run(ctx context.Context, mutate func(S) S, call func(context.Context) error) error {
	p := u.Apply(mutate)
	if err := call(ctx); err != nil {
		p.Revert(err)
		return err
	}
	p.Commit()
	return nil
}

func (u *Updater[S]) changed(s S) {
	if u.onChange != nil {
		u.onChange(s)
	}
}

// Pending is one applied, unsettled change.
type Pending[S any] struct {
	u      *Updater[S]
	once   sync.Once
	before S
	after  S
}

// Before returns the snapshot taken by Apply.
func (p *Pending[S]) Before() S { return p.before }

// After returns the optimistic value installed by Apply.
func (p *Pending[S]) After() S { return p.after }

// Commit settles the change and leaves the optimistic value in place until
// the next Set.
func (p *Pending[S]) Commit() {
	p.once.Do(func() {})
}

// Revert restores the pre-Apply snapshot and notifies with err. Calling it
// after Commit, or twice, does nothing.
func (p *Pending[S]) Revert(err error) {
	p.once.Do(func() {
		u := p.u
		u.mu.Lock()
		u.state = p.before
		u.mu.Unlock()
		u.log.Debug("optimistic change reverted", logger.Fields{"err": errString(err)})
		u.changed(p.before)
		if u.notify != nil && err != nil {
			u.notify(err)
		}
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
