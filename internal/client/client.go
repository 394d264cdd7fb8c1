// Package client talks to the similarity API: it submits XML documents and
// fetches the grouped results of the session they started.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semsim/internal/models"
)

const (
	// SessionCookie is the cookie the API uses to tie results to a submission.
	SessionCookie = "session_id"

	submitPath  = "/api/similarity"
	resultsPath = "/api/similarity/results"

	maxBodyBytes = 16 << 20
)

// ErrStillProcessing is returned by Poll when the API kept answering 202 Accepted.
var ErrStillProcessing = errors.New("results still processing")

// Response is a completed HTTP exchange with the body read as text.
type Response struct {
	URL        string
	StatusCode int
	StatusText string
	OK         bool
	Body       string
}

// Accepted reports whether the API is still working on the request.
func (r *Response) Accepted() bool {
	return r.StatusCode == http.StatusAccepted
}

// Client is a similarity API client. It keeps the session cookie between calls.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar is kept
// when set, otherwise a new one is installed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SubmitURL returns the submission URL for req.
func (c *Client) SubmitURL(req models.SubmitRequest) string {
	q := url.Values{}
	q.Set("elements", req.Elements)
	q.Set("threshold", strconv.FormatFloat(req.Threshold, 'f', -1, 64))
	return c.endpoint(submitPath) + "?" + q.Encode()
}

// ResultsURL returns the results URL.
func (c *Client) ResultsURL() string {
	return c.endpoint(resultsPath)
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// Submit posts xml for processing. Non-2xx statuses are not errors; only
// failures to complete the exchange are.
func (c *Client) Submit(ctx context.Context, xml string, req models.SubmitRequest) (*Response, error) {
	target := c.SubmitURL(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(xml))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/xml")
	httpReq.Header.Set("Accept", "application/json")
	return c.do(httpReq)
}

// Results fetches the results of the current session.
func (c *Client) Results(ctx context.Context) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResultsURL(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Response{
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:       string(body),
	}, nil
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// SessionID returns the session cookie value held for the API, or "".
func (c *Client) SessionID() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

// SetSession installs a session ID, for resuming a session started by an earlier process.
func (c *Client) SetSession(id string) {
	if id == "" {
		return
	}
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: SessionCookie, Value: id, Path: "/"}})
}
