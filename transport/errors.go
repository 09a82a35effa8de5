package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoRefreshToken is returned by Refresh when the credential store holds
// no refresh token.
var ErrNoRefreshToken = errors.New("transport: no refresh token")

// HTTPError is a non-2xx response. Detail and Message carry the backend's
// `detail` and `message` fields when the body was JSON; Fields holds
// per-field validation errors from a 400.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
	Message    string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// FieldSummary joins field errors as "field: msg; field: msg" in key order.
func (e *HTTPError) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// NetworkError is a request that produced no response at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
