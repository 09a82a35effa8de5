// Package auth holds the session tokens and the login call. Token refresh
// itself lives in the transport; this package only stores what it returns.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

// ErrCredentialsRequired is returned by Login for an empty email or password.
var ErrCredentialsRequired = errors.New("auth: email and password are required")

// Session is the logged-in identity reported by /api/login/.
type Session struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginDTO struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	User    *Session `json:"user"`
}

func (d loginDTO) validate() error {
	if d.Access == "" || d.Refresh == "" {
		return errors.New("login response is missing tokens")
	}
	return nil
}

type Service struct {
	api   *transport.Client
	store Store
	log   logger.Logger
	now   func() time.Time
}

func NewService(api *transport.Client, store Store, log logger.Logger) *Service {
	return &Service{api: api, store: store, log: logger.OrNop(log), now: time.Now}
}

// Login exchanges email and password for tokens and saves them.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrCredentialsRequired
	}
	var dto loginDTO
	body := map[string]string{"email": email, "password": password}
	if err := s.api.Post(ctx, "/api/login/", body, &dto); err != nil {
		return apierr.Handle(s.log, err, "Login", apierr.Options[Session]{
			DefaultMessage: "Login failed. Please check your credentials.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Session{}, apierr.New(0, err.Error())
	}
	if err := s.store.SetTokens(Tokens{Access: dto.Access, Refresh: dto.Refresh}); err != nil {
		return Session{}, err
	}
	var sess Session
	if dto.User != nil {
		sess = *dto.User
	}
	if sess.Email == "" {
		sess.Email = email
	}
	s.log.Info("logged in", logger.Fields{"email": sess.Email})
	return sess, nil
}

// Logout drops the stored tokens.
func (s *Service) Logout() error { return s.store.Clear() }

// Authenticated reports whether the store holds a usable session: an
// unexpired access token, or an unexpired refresh token the transport can
// trade for one.
func (s *Service) Authenticated() bool {
	return Authenticated(s.store, s.now())
}

// Authenticated is the clock-explicit form of Service.Authenticated.
func Authenticated(store Store, now time.Time) bool {
	return tokenUsable(store.AccessToken(), now) || tokenUsable(store.RefreshToken(), now)
}

// tokenUsable treats opaque (non-JWT) tokens as usable; the server decides.
func tokenUsable(tok string, now time.Time) bool {
	if tok == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return now.Before(claims.ExpiresAt.Time)
}
