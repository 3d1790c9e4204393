// Package account implements the control-plane client: worker handshake, job
// pickup, workspace event reporting and endpoint discovery against the
// account service.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/internal/httpclient"
	"github.com/tracelay/workspaced/lifecycle"
)

const (
	methodWorkerHandshake       = "workerHandshake"
	methodGetPendingWorkspace   = "getPendingWorkspace"
	methodUpdateWorkspaceInfo   = "updateWorkspaceInfo"
	methodGetTransactorEndpoint = "getTransactorEndpoint"

	requestTimeout = 30 * time.Second

	// updateRateLimit caps progress and ping traffic per worker. Phase
	// markers are never dropped; only the high-frequency events are.
	updateRateLimit = rate.Limit(10)
	updateRateBurst = 20
)

// Client talks to the account service over its JSON-RPC style POST endpoint.
// Implements lifecycle.ControlPlane.
type Client struct {
	url     string
	token   string
	http    *httpclient.Client
	log     *zap.SugaredLogger
	limiter *rate.Limiter
}

// NewClient creates a control-plane client for the given service URL.
func NewClient(url, token string, log *zap.SugaredLogger) *Client {
	return &Client{
		url:     url,
		token:   token,
		http:    httpclient.New(requestTimeout),
		log:     log,
		limiter: rate.NewLimiter(updateRateLimit, updateRateBurst),
	}
}

// WithHTTPClient swaps the underlying HTTP client. Intended for tests.
func (c *Client) WithHTTPClient(hc *httpclient.Client) *Client {
	c.http = hc
	return c
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// WorkerHandshake implements lifecycle.ControlPlane.
func (c *Client) WorkerHandshake(ctx context.Context, region string, version lifecycle.Version, operation string) error {
	_, err := c.call(ctx, methodWorkerHandshake, c.token, region, version, operation)
	return err
}

// GetPendingWorkspace implements lifecycle.ControlPlane. A null result means
// no work is pending.
func (c *Client) GetPendingWorkspace(ctx context.Context, region string, version lifecycle.Version, operation string) (*lifecycle.WorkspaceInfo, error) {
	raw, err := c.call(ctx, methodGetPendingWorkspace, c.token, region, version, operation)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var ws lifecycle.WorkspaceInfo
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, errors.Wrap(err, "failed to decode pending workspace")
	}
	if ws.Workspace == "" {
		return nil, nil
	}
	return &ws, nil
}

// UpdateWorkspaceInfo implements lifecycle.ControlPlane. Progress and ping
// events pass through a non-blocking rate limiter; a dropped tick is
// superseded by the next one, so it is not an error.
func (c *Client) UpdateWorkspaceInfo(ctx context.Context, workspace string, event lifecycle.Event, version lifecycle.Version, progress float64, message string) error {
	if event == lifecycle.EventProgress || event == lifecycle.EventPing {
		if !c.limiter.Allow() {
			c.log.Debugw("Rate-limited workspace update",
				"workspace", workspace,
				"event", event)
			return nil
		}
	}
	_, err := c.call(ctx, methodUpdateWorkspaceInfo, c.token, workspace, event, version, progress, message)
	return err
}

// GetTransactorEndpoint implements lifecycle.ControlPlane.
func (c *Client) GetTransactorEndpoint(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, methodGetTransactorEndpoint, c.token)
	if err != nil {
		return "", err
	}
	var endpoint string
	if err := json.Unmarshal(raw, &endpoint); err != nil {
		return "", errors.Wrap(err, "failed to decode transactor endpoint")
	}
	if endpoint == "" {
		return "", errors.New("control-plane returned no transactor endpoint")
	}
	return endpoint, nil
}

// call POSTs one method invocation and returns the raw result payload.
func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errors.Wrapf(errors.ErrServiceUnavailable, "%s returned %s", method, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("%s returned unexpected status %s", method, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", method)
	}
	var rpc rpcResponse
	if err := json.Unmarshal(data, &rpc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s response", method)
	}
	if rpc.Error != nil {
		return nil, errors.Wrapf(rpc.Error, "%s failed", method)
	}
	return rpc.Result, nil
}
