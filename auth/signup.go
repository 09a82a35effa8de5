package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
)

var (
	// ErrSignupFieldsRequired is returned by Signup when username, email or
	// password is empty.
	ErrSignupFieldsRequired = errors.New("auth: username, email and password are required")
	ErrOTPRequired          = errors.New("auth: email and code are required")
)

// SignupInput is the registration form. The backend mails a one-time code
// to Email; VerifyOTP completes the signup.
type SignupInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	AcademicYear *int   `json:"academic_year,omitempty"`
}

func (in *SignupInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return ErrSignupFieldsRequired
	}
	return nil
}

type verifyDTO struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Signup registers an account and returns the backend's message.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	if err := in.normalize(); err != nil {
		return "", err
	}
	var out verifyDTO
	if err := s.api.Post(ctx, "/api/signup/", in, &out); err != nil {
		return apierr.Handle(s.log, err, "Signup", apierr.Options[string]{
			DefaultMessage: "Signup failed. Please try again.",
			Rethrow:        true,
		})
	}
	s.log.Info("signed up", logger.Fields{"email": in.Email})
	return firstNonEmpty(out.Detail, out.Message, "Check your email for a verification code."), nil
}

// VerifyOTP confirms the code mailed by Signup. When the response carries
// tokens they are saved, which logs the user in.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email, otp = strings.TrimSpace(email), strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return "", ErrOTPRequired
	}
	var out verifyDTO
	path := "/api/verify-otp/" + url.PathEscape(email) + "/"
	if err := s.api.Post(ctx, path, map[string]string{"otp": otp}, &out); err != nil {
		return apierr.Handle(s.log, err, "OTP verification", apierr.Options[string]{
			DefaultMessage: "Verification failed. Please check the code.",
			Rethrow:        true,
		})
	}
	if out.Access != "" && out.Refresh != "" {
		if err := s.store.SetTokens(Tokens{Access: out.Access, Refresh: out.Refresh}); err != nil {
			return "", err
		}
	}
	return firstNonEmpty(out.Detail, out.Message, "Account verified."), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
