// Package transactor implements the maintenance client for the serving tier.
package transactor

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/internal/httpclient"
)

const requestTimeout = 10 * time.Second

// Client issues maintenance calls against a transactor endpoint. Implements
// lifecycle.SessionCloser.
type Client struct {
	token string
	http  *httpclient.Client
	log   *zap.SugaredLogger
}

// NewClient creates a transactor maintenance client.
func NewClient(token string, log *zap.SugaredLogger) *Client {
	return &Client{
		token: token,
		http:  httpclient.New(requestTimeout),
		log:   log,
	}
}

// WithHTTPClient swaps the underlying HTTP client. Intended for tests.
func (c *Client) WithHTTPClient(hc *httpclient.Client) *Client {
	c.http = hc
	return c
}

// ForceClose asks the transactor at endpoint to drop all live sessions. The
// endpoint is advertised with the websocket scheme the serving tier listens
// on; maintenance goes over plain HTTP against the same host.
func (c *Client) ForceClose(ctx context.Context, endpoint string) error {
	base := httpclient.NormalizeEndpoint(endpoint)

	q := url.Values{}
	q.Set("token", c.token)
	q.Set("operation", "force-close")
	target := base + "/api/v1/manage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build force-close request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "force-close request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("force-close returned unexpected status %s", resp.Status)
	}
	c.log.Infow("Force-closed transactor sessions", "endpoint", base)
	return nil
}
