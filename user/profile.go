package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
)

const profilePath = "/api/profile"

// ErrEmptyUpdate is returned by UpdateProfile when no field is set.
var ErrEmptyUpdate = errors.New("user: profile update has no fields")

// Profile is the signed-in user's own record.
type Profile struct {
	User
	Bio string `json:"bio,omitempty"`
}

// ProfileUpdate is a partial update. nil fields are left untouched.
type ProfileUpdate struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	AcademicYear *int    `json:"academic_year,omitempty"`
}

func (u ProfileUpdate) empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Bio == nil && u.AcademicYear == nil
}

type profileDTO struct {
	userDTO
	Bio *string `json:"bio"`
}

func (d profileDTO) toProfile() Profile {
	p := Profile{User: d.toUser()}
	if d.Bio != nil {
		p.Bio = strings.TrimSpace(*d.Bio)
	}
	return p
}

// Profile loads the signed-in user's profile. It needs a session; a 401 is
// returned as a normalized error.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	var dto profileDTO
	if err := s.api.Get(ctx, profilePath, nil, &dto); err != nil {
		return apierr.Handle(s.log, err, "Profile", apierr.Options[Profile]{
			DefaultMessage: "Failed to load your profile.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Profile{}, apierr.New(0, err.Error())
	}
	return dto.toProfile(), nil
}

// UpdateProfile sends the set fields as a PATCH and returns the stored profile.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Profile, error) {
	if upd.empty() {
		return Profile{}, ErrEmptyUpdate
	}
	var dto profileDTO
	if err := s.api.Do(ctx, http.MethodPatch, profilePath, nil, upd, &dto); err != nil {
		return apierr.Handle(s.log, err, "Profile", apierr.Options[Profile]{
			DefaultMessage: "Failed to update your profile.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Profile{}, apierr.New(0, err.Error())
	}
	p := dto.toProfile()
	s.log.Info("profile updated", logger.Fields{"username": p.Username})
	return p, nil
}
