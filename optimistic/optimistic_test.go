package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleVote(t *testing.T) {
	assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 5}, ToggleVote(Vote{UpvoteCount: 4}))
	assert.Equal(t, Vote{HasUpvoted: false, UpvoteCount: 4}, ToggleVote(Vote{HasUpvoted: true, UpvoteCount: 5}))
}

func TestRunCommitKeepsOptimisticValue(t *testing.T) {
	var seen []Vote
	u := New(Vote{UpvoteCount: 4}, Options[Vote]{OnChange: func(v Vote) { seen = append(seen, v) }})

	err := u.Run(context.Background(), ToggleVote, func(context.Context) error {
		assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 5}, u.State(), "applied before the call resolves")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 5}, u.State())
	assert.Equal(t, []Vote{{HasUpvoted: true, UpvoteCount: 5}}, seen)
}

func TestRunRevertRestoresSnapshotExactly(t *testing.T) {
	boom := errors.New("upvote failed")
	var notified []error
	u := New(Vote{UpvoteCount: 4}, Options[Vote]{Notify: func(err error) { notified = append(notified, err) }})

	err := u.Run(context.Background(), ToggleVote, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Vote{HasUpvoted: false, UpvoteCount: 4}, u.State())
	require.Len(t, notified, 1)
	assert.Equal(t, boom, notified[0])
}

func TestSecondToggleDerivesFromOptimisticState(t *testing.T) {
	u := New(Vote{UpvoteCount: 4}, Options[Vote]{})

	first := u.Apply(ToggleVote)
	second := u.Apply(ToggleVote)
	assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 5}, second.Before())
	assert.Equal(t, Vote{HasUpvoted: false, UpvoteCount: 4}, u.State())

	second.Commit()
	first.Commit()
	assert.Equal(t, Vote{HasUpvoted: false, UpvoteCount: 4}, u.State())
}

func TestRevertAfterCommitIsNoop(t *testing.T) {
	notified := 0
	u := New(Vote{UpvoteCount: 1}, Options[Vote]{Notify: func(error) { notified++ }})

	p := u.Apply(ToggleVote)
	p.Commit()
	p.Revert(errors.New("late"))
	p.Revert(errors.New("later"))

	assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 2}, u.State())
	assert.Zero(t, notified)
}

func TestSetReplacesWithAuthoritativeValue(t *testing.T) {
	u := New(Vote{UpvoteCount: 1}, Options[Vote]{})
	u.Apply(ToggleVote).Commit()
	u.Set(Vote{HasUpvoted: true, UpvoteCount: 7})
	assert.Equal(t, Vote{HasUpvoted: true, UpvoteCount: 7}, u.State())
}
