package membership

import "github.com/unkn0wn-root/unihub/community"

// State is the reconciler's position in its lifecycle.
type State int

const (
	// Idle: no slug. Status is nil and nothing is fetched.
	Idle State = iota
	// Unauthenticated: slug known, no session. Status is the default and
	// no request is made.
	Unauthenticated
	// Loading: a fetch is in flight.
	Loading
	// Resolved: the last fetch succeeded.
	Resolved
	// RetryPending: the community was not found yet; a re-fetch is scheduled.
	RetryPending
	// GaveUp: attempts exhausted or a non-retryable failure. Status is the
	// default and Err describes the failure.
	GaveUp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case RetryPending:
		return "retry_pending"
	case GaveUp:
		return "gave_up"
	}
	return "unknown"
}

// Settled reports whether no further transition happens without input.
func (s State) Settled() bool {
	switch s {
	case Idle, Unauthenticated, Resolved, GaveUp:
		return true
	}
	return false
}

// View is what a renderer consumes. Status is nil only in Idle.
type View struct {
	Slug    string
	State   State
	Status  *community.MembershipStatus
	Loading bool
	Err     string
	Attempt int
}
