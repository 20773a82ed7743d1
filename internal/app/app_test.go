package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollvote/internal/config"
)

func TestNewServer_MemoryStore(t *testing.T) {
	cfg := config.Config{
		StoreDriver:    config.StoreDriverMemory,
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
	}

	srv, err := NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewServer_RequiresSecret(t *testing.T) {
	_, err := NewServer(context.Background(), config.Config{StoreDriver: config.StoreDriverMemory})
	assert.Error(t, err)
}
