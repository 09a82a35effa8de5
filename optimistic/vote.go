package optimistic

// Vote is the upvote state of a post or comment as the viewer sees it.
type Vote struct {
	HasUpvoted  bool
	UpvoteCount int
}

// ToggleVote flips HasUpvoted and moves UpvoteCount by one in the same
// direction.
func ToggleVote(v Vote) Vote {
	if v.HasUpvoted {
		return Vote{HasUpvoted: false, UpvoteCount: v.UpvoteCount - 1}
	}
	return Vote{HasUpvoted: true, UpvoteCount: v.UpvoteCount + 1}
}
