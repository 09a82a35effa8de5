package community

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

const alreadyMemberDetail = "You are already a member of this community."

// FetchMembershipStatus asks the backend for the current user's standing.
// Errors are *apierr.Error with the HTTP status preserved, so callers can
// tell a not-yet-visible community (404) from other failures.
func (s *Service) FetchMembershipStatus(ctx context.Context, slug string) (MembershipStatus, error) {
	slug = CleanSlug(slug)
	if slug == "" {
		return DefaultMembershipStatus(), ErrSlugRequired
	}
	var dto membershipStatusDTO
	if err := s.api.Get(ctx, "/api/communities/"+slug+"/membership_status/", nil, &dto); err != nil {
		return DefaultMembershipStatus(), apierr.Normalize(err, "Membership status for "+slug, "")
	}
	if err := dto.validate(); err != nil {
		return DefaultMembershipStatus(), apierr.New(0, fmt.Sprintf("membership status for %q: %v", slug, err))
	}
	return dto.toStatus(), nil
}

// MembershipStatus is FetchMembershipStatus for callers that only render:
// every failure yields DefaultMembershipStatus.
func (s *Service) MembershipStatus(ctx context.Context, slug string) MembershipStatus {
	if CleanSlug(slug) == "" {
		s.log.Warn("membership status requested with empty slug", nil)
		return DefaultMembershipStatus()
	}
	ms, err := s.FetchMembershipStatus(ctx, slug)
	if err == nil {
		return ms
	}
	switch apierr.StatusCode(err) {
	case http.StatusNotFound, http.StatusUnauthorized:
		s.log.Debug("membership status unavailable", logger.Fields{"slug": slug, "err": err})
		return ms
	}
	def := DefaultMembershipStatus()
	out, _ := apierr.Handle(s.log, err, "fetching membership status for "+slug, apierr.Options[MembershipStatus]{Fallback: &def})
	return out
}

// Join joins the community. A 400 saying the user is already a member is
// reported as success. On success the community's cached entries and the
// community list are cleared.
func (s *Service) Join(ctx context.Context, slug string) (SuccessResponse, error) {
	slug = CleanSlug(slug)
	if slug == "" {
		return SuccessResponse{}, ErrSlugRequired
	}
	var resp SuccessResponse
	err := s.api.Post(ctx, "/api/communities/"+slug+"/join/", nil, &resp)
	switch {
	case err == nil:
	case alreadyMember(err):
		s.log.Info("already a member, treating join as success", logger.Fields{"slug": slug})
		return SuccessResponse{Detail: alreadyMemberDetail}, nil
	case apierr.StatusCode(err) == http.StatusUnauthorized:
		return SuccessResponse{}, apierr.New(http.StatusUnauthorized, "You need to be logged in to join a community")
	default:
		return apierr.Handle(s.log, err, "joining community "+slug, apierr.Options[SuccessResponse]{
			DefaultMessage: "Failed to join community.",
			Rethrow:        true,
		})
	}
	s.log.Info("joined community", logger.Fields{"slug": slug})
	s.afterMutation(ctx, slug)
	return resp, nil
}

// Leave leaves the community. Unlike Join it is not idempotent: a 404 means
// the community does not exist or the user is not a member, and is returned.
func (s *Service) Leave(ctx context.Context, slug string) (SuccessResponse, error) {
	slug = CleanSlug(slug)
	if slug == "" {
		return SuccessResponse{}, ErrSlugRequired
	}
	var resp SuccessResponse
	if err := s.api.Post(ctx, "/api/communities/"+slug+"/leave/", nil, &resp); err != nil {
		switch apierr.StatusCode(err) {
		case http.StatusUnauthorized:
			return SuccessResponse{}, apierr.New(http.StatusUnauthorized, "You need to be logged in to leave a community")
		case http.StatusNotFound:
			return SuccessResponse{}, apierr.New(http.StatusNotFound, fmt.Sprintf("Community %q not found or you're not a member", slug))
		}
		return apierr.Handle(s.log, err, "leaving community "+slug, apierr.Options[SuccessResponse]{
			DefaultMessage: "Failed to leave community.",
			Rethrow:        true,
		})
	}
	s.log.Info("left community", logger.Fields{"slug": slug})
	s.afterMutation(ctx, slug)
	return resp, nil
}

// afterMutation clears the list and the community's entries. The mutation
// already happened, so a failed clear is logged rather than returned.
func (s *Service) afterMutation(ctx context.Context, slug string) {
	s.mem.Clear(KeyCommunities)
	if err := s.invalidate(ctx, slug); err != nil {
		s.log.Error("cache invalidation after membership change failed", logger.Fields{"slug": slug, "err": err})
	}
}

func (s *Service) invalidate(ctx context.Context, slug string) error {
	key := Key(slug)
	s.mem.Clear(key)
	return errors.Join(
		s.store.Clear(ctx, key),
		s.store.Clear(ctx, KeyCommunities),
	)
}

func alreadyMember(err error) bool {
	var he *transport.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.Contains(he.Detail, "already a member") || strings.Contains(he.Message, "already a member")
}
