// Package user holds user records and the user search call.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

// Ref is the compact author/creator reference embedded in other records.
type Ref struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// DisplayName is "First Last" when known, else the username.
func (r Ref) DisplayName() string {
	if n := strings.TrimSpace(r.FirstName + " " + r.LastName); n != "" {
		return n
	}
	return r.Username
}

type User struct {
	Ref
	Email        string `json:"email,omitempty"`
	AcademicYear *int   `json:"academic_year,omitempty"`
}

// SearchType narrows which fields a search matches.
type SearchType string

const (
	SearchAll      SearchType = "all"
	SearchUsername SearchType = "username"
	SearchName     SearchType = "name"
	SearchFullName SearchType = "full_name"
	SearchInterest SearchType = "interest"
)

func (t SearchType) valid() bool {
	switch t {
	case SearchAll, SearchUsername, SearchName, SearchFullName, SearchInterest:
		return true
	}
	return false
}

type userDTO struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	AcademicYear   *int    `json:"academic_year"`
	ProfilePicture *string `json:"profile_picture"`
}

func (d userDTO) validate() error {
	if d.ID == 0 || d.Username == "" {
		return errors.New("user record missing id or username")
	}
	return nil
}

func (d userDTO) toUser() User {
	u := User{
		Ref: Ref{
			ID:        d.ID,
			Username:  d.Username,
			FirstName: d.FirstName,
			LastName:  d.LastName,
		},
		Email:        d.Email,
		AcademicYear: d.AcademicYear,
	}
	if d.ProfilePicture != nil {
		u.ProfilePicture = *d.ProfilePicture
	}
	return u
}

type Service struct {
	api *transport.Client
	log logger.Logger
}

func NewService(api *transport.Client, log logger.Logger) *Service {
	return &Service{api: api, log: logger.OrNop(log)}
}

// Search finds users matching query. Failures degrade to an empty list.
// Records that fail validation are skipped.
func (s *Service) Search(ctx context.Context, query string, typ SearchType) ([]User, error) {
	empty := []User{}
	query = strings.TrimSpace(query)
	if query == "" {
		return empty, nil
	}
	if !typ.valid() {
		typ = SearchAll
	}
	q := url.Values{"q": {query}, "type": {string(typ)}}

	var raw json.RawMessage
	if err := s.api.Get(ctx, "/api/users/search/", q, &raw); err != nil {
		return apierr.Handle(s.log, err, "user search", apierr.Options[[]User]{
			DefaultMessage: "Failed to search for users",
			Fallback:       &empty,
		})
	}
	dtos, err := transport.DecodeList[userDTO](raw)
	if err != nil {
		return apierr.Handle(s.log, err, "user search", apierr.Options[[]User]{Fallback: &empty})
	}
	out := make([]User, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping user record", logger.Fields{"err": err})
			continue
		}
		out = append(out, d.toUser())
	}
	return out, nil
}
