// Package apierr turns any data-access failure into one *Error carrying a
// human-readable message and, when known, the HTTP status. Callers above the
// transport only ever see *Error.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

// DefaultMessage is used when nothing more specific can be resolved.
const DefaultMessage = "An unexpected error occurred"

// Error is a normalized failure. It deliberately does not unwrap to the
// transport error that produced it.
type Error struct {
	Message    string
	StatusCode int // 0 => unknown
	Context    string
}

func (e *Error) Error() string { return e.Message }

// New builds an *Error directly, for messages decided by the caller.
func New(status int, msg string) *Error {
	return &Error{Message: msg, StatusCode: status}
}

// Options control Handle.
type Options[T any] struct {
	DefaultMessage string // "" => DefaultMessage
	// Fallback is returned when Rethrow is false. It must be set in that mode.
	Fallback *T
	Rethrow  bool
}

// Handle is the single funnel for data-access failures. With Rethrow it
// returns the normalized error; otherwise it logs and returns *Fallback.
// Calling it with neither Rethrow nor Fallback is a programming error and
// panics.
func Handle[T any](log logger.Logger, err error, context string, opts Options[T]) (T, error) {
	var zero T
	ne := Normalize(err, context, opts.DefaultMessage)
	logger.OrNop(log).Error("api call failed", logger.Fields{
		"context": context,
		"status":  ne.StatusCode,
		"message": ne.Message,
		"err":     err,
	})
	if opts.Rethrow {
		return zero, ne
	}
	if opts.Fallback == nil {
		panic(fmt.Sprintf("apierr: API call failed in %s and no fallback was specified", context))
	}
	return *opts.Fallback, nil
}

// Normalize resolves err to an *Error without logging. Message priority:
// backend detail, backend message, backend field errors, the error's own
// message, defaultMessage. Known status codes then override the message.
func Normalize(err error, context, defaultMessage string) *Error {
	if defaultMessage == "" {
		defaultMessage = DefaultMessage
	}
	var already *Error
	if errors.As(err, &already) {
		return &Error{Message: already.Message, StatusCode: already.StatusCode, Context: context}
	}

	out := &Error{Message: defaultMessage, Context: context}
	var he *transport.HTTPError
	var ne *transport.NetworkError
	switch {
	case err == nil:
	case errors.As(err, &he):
		out.StatusCode = he.StatusCode
		out.Message = firstNonEmpty(he.Detail, he.Message, he.FieldSummary(), he.Error(), defaultMessage)
		if msg, ok := statusMessage(he.StatusCode, context); ok {
			out.Message = msg
		}
	case errors.As(err, &ne):
		// no response: keep defaultMessage
	default:
		out.Message = firstNonEmpty(err.Error(), defaultMessage)
	}
	return out
}

func statusMessage(status int, context string) (string, bool) {
	switch status {
	case http.StatusUnauthorized:
		return "Please log in to continue", true
	case http.StatusForbidden:
		return "You don't have permission to access this resource", true
	case http.StatusNotFound:
		return context + " not found. It may have been deleted or never existed.", true
	case http.StatusInternalServerError:
		return "Server error. Please try again later.", true
	}
	return "", false
}

// StatusCode returns the HTTP status behind err (normalized or raw), or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return transport.StatusCode(err)
}

// IsNotFound reports whether err carries a 404.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
