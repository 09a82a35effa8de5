// Package membership keeps a single, always-renderable view of the current
// user's membership in one community. Not-found responses are retried with
// exponential backoff because a freshly created community may not be
// queryable yet; every other outcome settles on a well-formed status.
package membership

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/community"
	"github.com/unkn0wn-root/unihub/internal/clock"
	"github.com/unkn0wn-root/unihub/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("membership: reconciler closed")

// Fetcher reads the membership status. Errors should carry the HTTP status
// (see apierr.StatusCode) so 404s can be told apart.
type Fetcher interface {
	FetchMembershipStatus(ctx context.Context, slug string) (community.MembershipStatus, error)
}

type Options struct {
	Fetcher     Fetcher // required
	Clock       clock.Clock
	Logger      logger.Logger
	MaxAttempts int           // retries after the first fetch; 0 => 3
	BaseDelay   time.Duration // first retry delay, doubled each time; 0 => 1s
	// Spawn runs a fetch. nil => a new goroutine per fetch.
	Spawn func(func())
	// OnChange receives every new View, in order. It must not call Update,
	// Refresh or Close.
	OnChange func(View)
}

// Reconciler drives the membership state machine for one (slug, session)
// pair at a time. Safe for concurrent use.
type Reconciler struct {
	fetch       Fetcher
	clk         clock.Clock
	log         logger.Logger
	maxAttempts int
	spawn       func(func())
	onChange    func(View)

	mu      sync.Mutex
	emitMu  sync.Mutex
	started bool
	closed  bool
	slug    string
	authed  bool
	state   State
	status  *community.MembershipStatus
	errMsg  string
	attempt int
	// epoch is bumped whenever a run is superseded; late results carrying an
	// older epoch are dropped.
	epoch   uint64
	cancel  context.CancelFunc
	timer   clock.Timer
	backoff *backoff.ExponentialBackOff
	changed chan struct{}
}

func New(opts Options) *Reconciler {
	r := &Reconciler{
		fetch:       opts.Fetcher,
		clk:         opts.Clock,
		log:         logger.With(opts.Logger, logger.Fields{"component": "membership"}),
		maxAttempts: opts.MaxAttempts,
		spawn:       opts.Spawn,
		onChange:    opts.OnChange,
		changed:     make(chan struct{}),
	}
	if r.clk == nil {
		r.clk = clock.Real{}
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.spawn == nil {
		r.spawn = func(f func()) { go f() }
	}
	base := opts.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	r.backoff = &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         base << 10,
	}
	return r
}

// Update sets the slug and session state. The machine restarts only when
// either differs from the previous call.
func (r *Reconciler) Update(slug string, authenticated bool) {
	slug = community.CleanSlug(slug)
	r.mu.Lock()
	if r.closed || (r.started && slug == r.slug && authenticated == r.authed) {
		r.mu.Unlock()
		return
	}
	if slug != r.slug {
		r.status = nil
	}
	r.started = true
	r.slug, r.authed = slug, authenticated
	r.restartLocked()
}

// Refresh re-enters Loading from any state with a fresh attempt counter.
func (r *Reconciler) Refresh() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.restartLocked()
}

// View returns the current view.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Wait blocks until the machine is in a settled state and returns its view.
func (r *Reconciler) Wait(ctx context.Context) (View, error) {
	for {
		r.mu.Lock()
		if r.closed {
			v := r.viewLocked()
			r.mu.Unlock()
			return v, ErrClosed
		}
		if r.state.Settled() {
			v := r.viewLocked()
			r.mu.Unlock()
			return v, nil
		}
		ch := r.changed
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return r.View(), ctx.Err()
		case <-ch:
		}
	}
}

// Close stops pending retries and cancels the in-flight fetch. Results that
// arrive afterwards are discarded.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.supersedeLocked()
	r.broadcastLocked()
}

// restartLocked is entered with r.mu held and releases it.
func (r *Reconciler) restartLocked() {
	r.supersedeLocked()
	r.attempt = 0
	r.errMsg = ""

	var launch func()
	switch {
	case r.slug == "":
		r.state, r.status = Idle, nil
	case !r.authed:
		r.state = Unauthenticated
		r.status = defaultStatus()
	default:
		r.backoff.Reset()
		launch = r.beginFetchLocked()
	}
	r.commitAndUnlock(launch)
}

// supersedeLocked invalidates the current run.
func (r *Reconciler) supersedeLocked() {
	r.epoch++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reconciler) beginFetchLocked() func() {
	r.state = Loading
	if r.status == nil {
		r.status = defaultStatus()
	}
	epoch, slug := r.epoch, r.slug
	ctx, cancel := context.WithCancel(context.Background())
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	return func() {
		ms, err := r.fetch.FetchMembershipStatus(ctx, slug)
		r.complete(epoch, ms, err)
	}
}

func (r *Reconciler) complete(epoch uint64, ms community.MembershipStatus, err error) {
	r.mu.Lock()
	if r.closed || epoch != r.epoch || r.state != Loading {
		r.mu.Unlock()
		r.log.Debug("discarding stale membership result", logger.Fields{"epoch": epoch})
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	switch {
	case err == nil:
		r.state = Resolved
		r.status = &ms
		r.attempt = 0
		r.errMsg = ""
	case apierr.IsNotFound(err) && r.attempt < r.maxAttempts:
		delay := r.backoff.NextBackOff()
		r.attempt++
		r.state = RetryPending
		r.status = defaultStatus()
		r.errMsg = errMessage(err)
		r.log.Debug("membership status not found yet, retrying", logger.Fields{
			"slug": r.slug, "attempt": r.attempt, "delay": delay.String(),
		})
		r.timer = r.clk.AfterFunc(delay, func() { r.retry(epoch) })
	default:
		r.state = GaveUp
		r.status = defaultStatus()
		r.errMsg = errMessage(err)
		r.log.Warn("membership status unavailable", logger.Fields{
			"slug": r.slug, "attempt": r.attempt, "err": r.errMsg,
		})
	}
	r.commitAndUnlock(nil)
}

func (r *Reconciler) retry(epoch uint64) {
	r.mu.Lock()
	if r.closed || epoch != r.epoch || r.state != RetryPending {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	launch := r.beginFetchLocked()
	r.commitAndUnlock(launch)
}

// commitAndUnlock publishes the new view, releases r.mu, notifies the
// listener and then starts launch, if any.
func (r *Reconciler) commitAndUnlock(launch func()) {
	r.broadcastLocked()
	v := r.viewLocked()
	r.emitMu.Lock()
	r.mu.Unlock()
	if r.onChange != nil {
		r.onChange(v)
	}
	r.emitMu.Unlock()
	if launch != nil {
		r.spawn(launch)
	}
}

func (r *Reconciler) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Reconciler) viewLocked() View {
	v := View{
		Slug:    r.slug,
		State:   r.state,
		Loading: r.state == Loading,
		Err:     r.errMsg,
		Attempt: r.attempt,
	}
	if r.status != nil {
		s := *r.status
		v.Status = &s
	}
	return v
}

func defaultStatus() *community.MembershipStatus {
	s := community.DefaultMembershipStatus()
	return &s
}

func errMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to fetch membership status"
}
