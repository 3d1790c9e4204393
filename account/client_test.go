package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tracelay/workspaced/errors"
	"github.com/tracelay/workspaced/internal/httpclient"
	"github.com/tracelay/workspaced/lifecycle"
)

type recordedCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// newTestClient wires a client against a handler and records every call body.
func newTestClient(t *testing.T, handler func(call recordedCall, w http.ResponseWriter)) (*Client, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var call recordedCall
		require.NoError(t, json.Unmarshal(body, &call))
		calls = append(calls, call)
		handler(call, w)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret-token", zaptest.NewLogger(t).Sugar()).
		WithHTTPClient(httpclient.Wrap(srv.Client()))
	return c, &calls
}

func respondResult(w http.ResponseWriter, result any) {
	json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func TestClient_WorkerHandshake(t *testing.T) {
	c, calls := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, true)
	})

	err := c.WorkerHandshake(context.Background(), "eu-1", lifecycle.Version{Major: 1, Minor: 2, Patch: 3}, "all")
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "workerHandshake", call.Method)
	require.Len(t, call.Params, 4)
	assert.Equal(t, "secret-token", call.Params[0])
	assert.Equal(t, "eu-1", call.Params[1])
	assert.Equal(t, "all", call.Params[3])
}

func TestClient_GetPendingWorkspace(t *testing.T) {
	c, _ := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, map[string]any{
			"workspace": "ws-alpha",
			"uuid":      "7e4aa3ac-3b0f-4d0e-9c4d-8f27a2f0a001",
			"mode":      "pending-creation",
			"progress":  12.5,
		})
	})

	ws, err := c.GetPendingWorkspace(context.Background(), "", lifecycle.Version{Major: 1}, "all")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "ws-alpha", ws.Workspace)
	assert.Equal(t, lifecycle.ModePendingCreation, ws.Mode)
	assert.Equal(t, 12.5, ws.ObservedProgress())
}

func TestClient_GetPendingWorkspaceEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, nil)
	})

	ws, err := c.GetPendingWorkspace(context.Background(), "", lifecycle.Version{}, "all")
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestClient_UpdateWorkspaceInfo(t *testing.T) {
	c, calls := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, true)
	})

	err := c.UpdateWorkspaceInfo(context.Background(), "ws-alpha", lifecycle.EventCreateDone, lifecycle.Version{Major: 1}, 100, "")
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "updateWorkspaceInfo", call.Method)
	require.Len(t, call.Params, 6)
	assert.Equal(t, "ws-alpha", call.Params[1])
	assert.Equal(t, "create-done", call.Params[2])
	assert.Equal(t, float64(100), call.Params[4])
}

func TestClient_GetTransactorEndpoint(t *testing.T) {
	c, _ := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, "wss://transactor.internal:3333")
	})

	endpoint, err := c.GetTransactorEndpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://transactor.internal:3333", endpoint)
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	c, _ := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := c.WorkerHandshake(context.Background(), "", lifecycle.Version{}, "all")
	assert.ErrorIs(t, err, errors.ErrServiceUnavailable)
}

func TestClient_RPCErrorSurfaced(t *testing.T) {
	c, _ := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "unauthorized", "message": "bad token"},
		})
	})

	err := c.WorkerHandshake(context.Background(), "", lifecycle.Version{}, "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestClient_RateLimitsProgressOnly(t *testing.T) {
	c, calls := newTestClient(t, func(call recordedCall, w http.ResponseWriter) {
		respondResult(w, true)
	})

	ctx := context.Background()
	// burst past the limiter; extra progress ticks are dropped silently
	for i := 0; i < 100; i++ {
		require.NoError(t, c.UpdateWorkspaceInfo(ctx, "ws", lifecycle.EventProgress, lifecycle.Version{}, float64(i), ""))
	}
	progressCalls := len(*calls)
	assert.Less(t, progressCalls, 100)

	// phase markers are never dropped
	for i := 0; i < 5; i++ {
		require.NoError(t, c.UpdateWorkspaceInfo(ctx, "ws", lifecycle.EventCreateDone, lifecycle.Version{}, 100, ""))
	}
	assert.Equal(t, progressCalls+5, len(*calls))
}
