package fulltext

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tracelay/workspaced/internal/httpclient"
)

func TestReindex(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody reindexRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token", zaptest.NewLogger(t).Sugar()).
		WithHTTPClient(httpclient.Wrap(srv.Client()))

	require.NoError(t, c.Reindex(context.Background(), true))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/reindex", gotPath)
	assert.Equal(t, "secret-token", gotBody.Token)
	assert.True(t, gotBody.OnlyDrop)
}

func TestReindex_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index locked", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token", zaptest.NewLogger(t).Sugar()).
		WithHTTPClient(httpclient.Wrap(srv.Client()))

	err := c.Reindex(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
