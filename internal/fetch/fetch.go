// Package fetch performs the outbound HTTP calls of the pipeline (sources and
// geocoding) with bounded timeouts and typed errors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// DefaultTimeout bounds a single outbound call.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (compatible; bibhub/1.0)"

// maxBody caps how much of a response body is read into memory.
const maxBody = 32 << 20

// Error describes a failed outbound call.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether trying again later may succeed: timeouts,
// connection failures, 429 and 5xx responses.
func (e *Error) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(e.Cause, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(e.Cause, &opErr)
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}

// Client wraps an *http.Client with a per-call timeout.
type Client struct {
	HTTP      *http.Client
	Timeout   time.Duration
	UserAgent string
}

// NewClient returns a client whose calls are bounded by timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Timeout:   timeout,
		UserAgent: DefaultUserAgent,
	}
}

// Response is a fully read, UTF-8 decoded response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Do sends req, reads the body and decodes ISO-8859-1 payloads to UTF-8.
// Non-2xx statuses are returned as *Error together with the response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	url := req.URL.String()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	ctype := resp.Header.Get("Content-Type")
	var body io.Reader = io.LimitReader(resp.Body, maxBody)
	if isLatin1(ctype) {
		body = charmap.ISO8859_1.NewDecoder().Reader(body)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Message: "read body", Cause: err}
	}

	out := &Response{StatusCode: resp.StatusCode, ContentType: ctype, Body: b}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &Error{
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(b)),
		}
	}
	return out, nil
}

// Get is a convenience wrapper around Do for GET requests.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Message: "build request", Cause: err}
	}
	return c.Do(ctx, req)
}

func isLatin1(contentType string) bool {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch strings.ToLower(params["charset"]) {
	case "iso-8859-1", "latin1", "latin-1":
		return true
	}
	return false
}

func snippet(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
