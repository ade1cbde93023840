// Package httpclient is the authenticated API client: bearer attachment, single-flight
// token refresh on 401, retry-once and the forced-logout cascade.
package httpclient

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
	"sync"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/limiter"
	"github.com/and161185/imageshop/internal/metrics"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/tokenstore"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RefreshPath is the token exchange endpoint.
const RefreshPath = "/Auth/refresh"

// errSessionGone means the token a request was sent with was cleared while it was in flight.
var errSessionGone = errors.New("session cleared while request was in flight")

// Request describes one API call.
type Request struct {
	Method string
	Path   string // relative to the base URL, e.g. "/Cart/items"
	Query  url.Values
	Body   any // JSON-encoded when non-nil

	// SkipAuthRefresh sends the call without credentials and without 401 handling.
	// Used by the refresh and logout calls themselves.
	SkipAuthRefresh bool

	Accept string // default application/json

	retried bool
}

// Response is a successful (2xx) raw response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client wraps every outbound API request.
type Client struct {
	base   string
	hc     *http.Client
	tokens *tokenstore.Store
	pacer  *limiter.Pacer
	log    *zap.Logger
	m      *metrics.Metrics

	sf singleflight.Group

	mu       sync.Mutex
	onLogout func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithMetrics sets the collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.m = m } }

// WithPacer spaces outbound requests.
func WithPacer(p *limiter.Pacer) Option { return func(c *Client) { c.pacer = p } }

// New constructs a Client for baseURL reading credentials from tokens.
func New(baseURL string, tokens *tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		tokens: tokens,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	return c
}

// SetLogoutHandler installs the single callback invoked when a refresh exchange fails.
func (c *Client) SetLogoutHandler(fn func()) {
	c.mu.Lock()
	c.onLogout = fn
	c.mu.Unlock()
}

func (c *Client) logoutHandler() func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onLogout
}

// Do sends req and decodes a JSON body into out (when out is non-nil and the body is non-empty).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Raw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.Path, err)
	}
	return nil
}

// Raw sends req and returns the raw 2xx response, or an error.
// Non-2xx responses are returned as *errs.HTTPError.
func (c *Client) Raw(ctx context.Context, req Request) (*Response, error) {
	used := ""
	if !req.SkipAuthRefresh {
		used = c.tokens.AccessToken()
	}
	resp, err := c.send(ctx, req, used)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || req.retried || req.SkipAuthRefresh {
		return c.check(req, resp)
	}

	_, orig := c.check(req, resp)
	req.retried = true
	access, err := c.refresh(ctx, used)
	if err != nil {
		return nil, orig
	}
	resp, err = c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}
	return c.check(req, resp)
}

// refresh returns a usable access token, running at most one exchange at a time.
// used is the token the failing request carried.
func (c *Client) refresh(ctx context.Context, used string) (string, error) {
	v, err, shared := c.sf.Do("refresh", func() (any, error) {
		cur := c.tokens.AccessToken()
		switch {
		case used != "" && cur == "":
			return "", errSessionGone
		case cur != "" && cur != used:
			return cur, nil
		}
		return c.exchange(context.WithoutCancel(ctx))
	})
	if shared {
		c.log.Debug("joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange trades the refresh token (or the refresh cookie) for a new pair.
func (c *Client) exchange(ctx context.Context) (string, error) {
	prev := c.tokens.Get()
	var body any
	if prev != nil && prev.RefreshToken != "" {
		body = model.RefreshRequest{RefreshToken: prev.RefreshToken}
	}
	var ar model.AuthResponse
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: RefreshPath, Body: body, SkipAuthRefresh: true}, &ar)
	if err == nil && ar.AccessToken == "" {
		err = errors.New("refresh returned no access token")
	}
	if err != nil {
		c.m.Refresh(metrics.OutcomeError)
		c.log.Warn("token refresh failed, forcing logout", zap.Error(err))
		if cerr := c.tokens.Clear(ctx); cerr != nil {
			c.log.Error("clear tokens", zap.Error(cerr))
		}
		if fn := c.logoutHandler(); fn != nil {
			fn()
		}
		return "", err
	}

	next := &model.Tokens{AccessToken: ar.AccessToken, RefreshToken: ar.RefreshToken}
	if next.RefreshToken == "" && prev != nil {
		next.RefreshToken = prev.RefreshToken
	}
	if err := c.tokens.Set(ctx, next); err != nil {
		c.log.Warn("persist refreshed tokens", zap.Error(err))
	}
	c.m.Refresh(metrics.OutcomeOK)
	c.log.Debug("token refreshed")
	return ar.AccessToken, nil
}

func (c *Client) send(ctx context.Context, req Request, access string) (*Response, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, errs.ErrNetwork, err)
	}

	u := c.base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var rdr io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", req.Method, req.Path, err)
		}
		rdr = bytes.NewReader(b)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	hr.Header.Set("Content-Type", "application/json")
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	hr.Header.Set("Accept", accept)
	if access != "" {
		hr.Header.Set("Authorization", "Bearer "+access)
	}

	res, err := c.hc.Do(hr)
	if err != nil {
		if errors.Is(err, errs.ErrNetwork) {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, errs.ErrNetwork, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %w", req.Method, req.Path, errs.ErrNetwork, err)
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: body}, nil
}

func (c *Client) check(req Request, resp *Response) (*Response, error) {
	if resp.Status >= 200 && resp.Status < 300 {
		return resp, nil
	}
	return nil, &errs.HTTPError{
		Status:  resp.Status,
		Method:  req.Method,
		Path:    req.Path,
		Message: serverMessage(resp.Body),
	}
}

// serverMessage extracts a human message from {"message"}, ProblemDetails {"title"/"detail"}
// or a short plain-text body.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, k := range []string{"message", "detail", "title", "error"} {
			if r := gjson.GetBytes(body, k); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
		if r := gjson.ParseBytes(body); r.Type == gjson.String {
			return r.Str
		}
		return ""
	}
	if len(body) <= 200 && !bytes.ContainsAny(body, "<>") {
		return string(body)
	}
	return ""
}
