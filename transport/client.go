// Package transport is the HTTP client for the community backend. It attaches
// the bearer token from a Credentials store, tags each request with an
// X-Request-ID, and on a 401 refreshes the access token once and retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/unihub/logger"
)

const (
	refreshPath     = "/api/token/refresh/"
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Credentials is the token store the client reads and refreshes.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	Clear() error
}

// Options configure a Client. BaseURL is required.
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client  // nil => new client with Timeout
	Timeout     time.Duration // used only when HTTPClient is nil
	Credentials Credentials   // nil => anonymous
	Logger      logger.Logger
	// RequestID generates X-Request-ID values. nil => uuid v4.
	RequestID func() string
}

type Client struct {
	base      *url.URL
	hc        *http.Client
	creds     Credentials
	log       logger.Logger
	requestID func() string
	refreshes singleflight.Group
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("transport: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		base:      base,
		hc:        hc,
		creds:     opts.Credentials,
		log:       logger.OrNop(opts.Logger),
		requestID: opts.RequestID,
	}
	if c.requestID == nil {
		c.requestID = func() string { return uuid.NewString() }
	}
	return c, nil
}

// Get issues a GET and decodes the JSON response into out (nil => discard).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with body encoded as JSON (nil => no body).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Do performs one request. A 401 triggers at most one token refresh and
// retry. Non-2xx responses return *HTTPError; failures without a response
// return *NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}

	err := c.do(ctx, method, path, query, payload, out)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusUnauthorized || path == refreshPath {
		return err
	}
	if c.creds == nil || c.creds.RefreshToken() == "" {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		c.log.Warn("token refresh failed", logger.Fields{"path": path, "err": rerr})
		return err
	}
	return c.do(ctx, method, path, query, payload, out)
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share one round trip. A rejected refresh token clears the store.
func (c *Client) Refresh(ctx context.Context) error {
	if c.creds == nil || c.creds.RefreshToken() == "" {
		return ErrNoRefreshToken
	}
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		payload, err := json.Marshal(map[string]string{"refresh": c.creds.RefreshToken()})
		if err != nil {
			return nil, err
		}
		var out struct {
			Access string `json:"access"`
		}
		if err := c.do(ctx, http.MethodPost, refreshPath, nil, payload, &out); err != nil {
			if StatusCode(err) == http.StatusUnauthorized {
				if cerr := c.creds.Clear(); cerr != nil {
					c.log.Warn("clear credentials failed", logger.Fields{"err": cerr})
				}
			}
			return nil, err
		}
		if out.Access == "" {
			return nil, errors.New("transport: refresh response has no access token")
		}
		return nil, c.creds.SetAccessToken(out.Access)
	})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	u := c.base.JoinPath(path)
	// JoinPath drops the trailing slash the backend routes require.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := c.requestID()
	req.Header.Set(requestIDHeader, rid)
	if c.creds != nil && path != refreshPath {
		if tok := c.creds.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.log.Debug("api request", logger.Fields{"method": method, "path": path, "request_id": rid})
	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		he := parseHTTPError(resp, method, path)
		// 404s on membership status are expected right after a community is created.
		if !(he.StatusCode == http.StatusNotFound && strings.Contains(path, "/membership_status/")) {
			c.log.Warn("api error response", logger.Fields{
				"method": method, "path": path, "status": he.StatusCode, "request_id": rid,
			})
		}
		return he
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func parseHTTPError(resp *http.Response, method, path string) *HTTPError {
	he := &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return he
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return he
	}
	for k, raw := range fields {
		switch k {
		case "detail":
			he.Detail = rawString(raw)
		case "message":
			he.Message = rawString(raw)
		default:
			if msgs := rawMessages(raw); len(msgs) > 0 {
				if he.Fields == nil {
					he.Fields = make(map[string][]string)
				}
				he.Fields[k] = msgs
			}
		}
	}
	return he
}

func rawString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func rawMessages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	if s := rawString(raw); s != "" {
		return []string{s}
	}
	return nil
}
