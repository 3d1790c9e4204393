// Package fulltext implements the reindex client for the full-text search
// service.
package fulltext

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/internal/httpclient"
)

const requestTimeout = 30 * time.Second

// Client asks the full-text service to rebuild or drop its indexes.
// Implements lifecycle.Reindexer.
type Client struct {
	url   string
	token string
	http  *httpclient.Client
	log   *zap.SugaredLogger
}

// NewClient creates a reindex client for the given service URL.
func NewClient(url, token string, log *zap.SugaredLogger) *Client {
	return &Client{
		url:   url,
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

type reindexRequest struct {
	Token    string `json:"token"`
	OnlyDrop bool   `json:"onlyDrop"`
}

// Reindex implements lifecycle.Reindexer. With onlyDrop the service drops
// the indexes without rebuilding them.
func (c *Client) Reindex(ctx context.Context, onlyDrop bool) error {
	body, err := json.Marshal(reindexRequest{Token: c.token, OnlyDrop: onlyDrop})
	if err != nil {
		return errors.Wrap(err, "failed to encode reindex request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url+"/api/v1/reindex", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build reindex request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "reindex request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("reindex returned unexpected status %s", resp.Status)
	}
	c.log.Infow("Requested full-text reindex", "onlyDrop", onlyDrop)
	return nil
}
