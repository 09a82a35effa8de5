package community

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unkn0wn-root/unihub/user"
)

type communityDTO struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Category         string    `json:"category"`
	Tags             string    `json:"tags"`
	Image            *string   `json:"image"`
	Banner           *string   `json:"banner"`
	Creator          *user.Ref `json:"creator"`
	Rules            string    `json:"rules"`
	IsPrivate        bool      `json:"is_private"`
	RequiresApproval bool      `json:"requires_approval"`
	MemberCount      int       `json:"member_count"`
	PostCount        int       `json:"post_count"`
	IsMember         bool      `json:"is_member"`
	MembershipRole   *string   `json:"membership_role"`
	MembershipStatus *string   `json:"membership_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (d communityDTO) validate() error {
	if d.Slug == "" {
		return errors.New("community record has no slug")
	}
	if d.MembershipRole != nil && !Role(*d.MembershipRole).valid() {
		return fmt.Errorf("community %q: unknown membership role %q", d.Slug, *d.MembershipRole)
	}
	if d.MembershipStatus != nil && !MembershipState(*d.MembershipStatus).valid() {
		return fmt.Errorf("community %q: unknown membership status %q", d.Slug, *d.MembershipStatus)
	}
	return nil
}

func (d communityDTO) toCommunity() Community {
	c := Community{
		ID:               d.ID,
		Name:             d.Name,
		Slug:             strings.Trim(d.Slug, "/"),
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		Category:         d.Category,
		Tags:             splitTags(d.Tags),
		Creator:          d.Creator,
		Rules:            d.Rules,
		IsPrivate:        d.IsPrivate,
		RequiresApproval: d.RequiresApproval,
		MemberCount:      d.MemberCount,
		PostCount:        d.PostCount,
		IsMember:         d.IsMember,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Image != nil {
		c.Image = *d.Image
	}
	if d.Banner != nil {
		c.Banner = *d.Banner
	}
	if d.MembershipRole != nil {
		r := Role(*d.MembershipRole)
		c.MembershipRole = &r
	}
	if d.MembershipStatus != nil {
		s := MembershipState(*d.MembershipStatus)
		c.MembershipStatus = &s
	}
	return c
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type membershipStatusDTO struct {
	IsMember *bool   `json:"is_member"`
	Status   *string `json:"status"`
	Role     *string `json:"role"`
}

func (d membershipStatusDTO) validate() error {
	if d.IsMember == nil {
		return errors.New("membership status has no is_member")
	}
	if d.Status != nil && !MembershipState(*d.Status).valid() {
		return fmt.Errorf("unknown membership status %q", *d.Status)
	}
	if d.Role != nil && !Role(*d.Role).valid() {
		return fmt.Errorf("unknown membership role %q", *d.Role)
	}
	return nil
}

func (d membershipStatusDTO) toStatus() MembershipStatus {
	ms := MembershipStatus{IsMember: *d.IsMember}
	if d.Status != nil {
		s := MembershipState(*d.Status)
		ms.Status = &s
	}
	if d.Role != nil {
		r := Role(*d.Role)
		ms.Role = &r
	}
	return ms
}

type memberDTO struct {
	ID       int64     `json:"id"`
	User     *user.Ref `json:"user"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

func (d memberDTO) validate() error {
	if d.User == nil {
		return errors.New("member record has no user")
	}
	if !Role(d.Role).valid() {
		return fmt.Errorf("member %q: unknown role %q", d.User.Username, d.Role)
	}
	if d.Status != "" && !MembershipState(d.Status).valid() {
		return fmt.Errorf("member %q: unknown status %q", d.User.Username, d.Status)
	}
	return nil
}

func (d memberDTO) toMember() Member {
	st := MembershipState(d.Status)
	if st == "" {
		st = StateApproved
	}
	return Member{ID: d.ID, User: *d.User, Role: Role(d.Role), Status: st, JoinedAt: d.JoinedAt}
}

type createDTO struct {
	CreateInput
	Tags string `json:"tags,omitempty"`
}
