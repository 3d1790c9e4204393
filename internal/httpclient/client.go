// Package httpclient provides the shared HTTP client used for control-plane,
// transactor and full-text service calls.
package httpclient

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tracelay/workspaced/errors"
)

// Client wraps http.Client with scheme validation and sane transport limits.
type Client struct {
	*http.Client
	allowedSchemes []string
}

// New creates an HTTP client with the given total request timeout.
func New(timeout time.Duration) *Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &Client{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		allowedSchemes: []string{"http", "https"},
	}
}

// Wrap wraps an existing http.Client. Intended for tests that need
// httptest.Server clients.
func Wrap(client *http.Client) *Client {
	return &Client{
		Client:         client,
		allowedSchemes: []string{"http", "https"},
	}
}

// Do executes an HTTP request after validating the target URL scheme.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	for _, allowed := range c.allowedSchemes {
		if scheme == allowed {
			if u.Hostname() == "" {
				return errors.New("URL missing hostname")
			}
			return nil
		}
	}
	return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
}

// NormalizeEndpoint rewrites ws(s):// endpoints to their http(s) equivalent.
// Endpoints advertised by the control-plane carry the websocket scheme the
// serving tier listens on; maintenance calls go over plain HTTP.
func NormalizeEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "ws://"):
		return "http://" + strings.TrimPrefix(endpoint, "ws://")
	case strings.HasPrefix(endpoint, "wss://"):
		return "https://" + strings.TrimPrefix(endpoint, "wss://")
	default:
		return endpoint
	}
}
