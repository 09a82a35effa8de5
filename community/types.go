package community

import (
	"net/url"
	"strconv"
	"time"

	"github.com/unkn0wn-root/unihub/user"
)

// MembershipState is the approval state of a membership.
type MembershipState string

const (
	StatePending  MembershipState = "pending"
	StateApproved MembershipState = "approved"
	StateRejected MembershipState = "rejected"
)

func (s MembershipState) valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

func (r Role) valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

// MembershipStatus is the current user's standing in one community. Status
// and Role are meaningful only when IsMember is true.
type MembershipStatus struct {
	IsMember bool             `json:"is_member"`
	Status   *MembershipState `json:"status"`
	Role     *Role            `json:"role"`
}

// DefaultMembershipStatus is the safe "not a member" value used whenever the
// real status is unknown.
func DefaultMembershipStatus() MembershipStatus {
	return MembershipStatus{}
}

// Community is a community record. IsMember, MembershipRole and
// MembershipStatus are a snapshot taken with the record; the membership
// status endpoint is the authority for the current user's standing.
type Community struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description,omitempty"`
	Category         string           `json:"category"`
	Tags             []string         `json:"tags,omitempty"`
	Image            string           `json:"image,omitempty"`
	Banner           string           `json:"banner,omitempty"`
	Creator          *user.Ref        `json:"creator,omitempty"`
	Rules            string           `json:"rules,omitempty"`
	IsPrivate        bool             `json:"is_private"`
	RequiresApproval bool             `json:"requires_approval"`
	MemberCount      int              `json:"member_count"`
	PostCount        int              `json:"post_count"`
	IsMember         bool             `json:"is_member"`
	MembershipRole   *Role            `json:"membership_role,omitempty"`
	MembershipStatus *MembershipState `json:"membership_status,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Member is one membership row of a community.
type Member struct {
	ID       int64           `json:"id"`
	User     user.Ref        `json:"user"`
	Role     Role            `json:"role"`
	Status   MembershipState `json:"status"`
	JoinedAt time.Time       `json:"joined_at"`
}

// SuccessResponse is the body of join/leave.
type SuccessResponse struct {
	Detail string `json:"detail"`
}

// Filters narrow a community listing. A nil *Filters means "unfiltered"
// and is the only form served from cache.
type Filters struct {
	Category string
	Search   string
	Ordering string
	Page     int
	MemberOf bool
	Username string
}

func (f *Filters) values() url.Values {
	if f == nil {
		return nil
	}
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Ordering != "" {
		v.Set("ordering", f.Ordering)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.MemberOf {
		v.Set("member_of", "true")
	}
	if f.Username != "" {
		v.Set("username", f.Username)
	}
	return v
}

// CreateInput is the payload for CreateCommunity.
type CreateInput struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description,omitempty"`
	Category         string   `json:"category"`
	Tags             []string `json:"-"`
	Rules            string   `json:"rules,omitempty"`
	IsPrivate        bool     `json:"is_private"`
	RequiresApproval bool     `json:"requires_approval"`
}
