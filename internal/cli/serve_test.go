package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/seedbed/internal/config"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Config{Port: 8080, LogLevel: "info", LogFormat: "text", JustOnceScope: "session", SessionDir: t.TempDir()}

	srv, cleanup, err := NewHTTPServer(cfg, ServeOptions{Port: 9999}, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, ":9999", srv.Addr)

	body := `{"recipe": "- object: Account\n  count: 2\n  fields:\n    Name: Acme ${{ id }}\n", "session_id": "srv"}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Acme 2")

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `seedbed_records_total{object="Account"} 2`)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	// The session landed in the configured directory.
	req = httptest.NewRequest(http.MethodGet, "/sessions/srv", nil)
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	cfg := config.Config{LogLevel: "error", LogFormat: "json", JustOnceScope: "session"}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, cfg, ServeOptions{Port: 0}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	cfg := config.Config{LogLevel: "info", LogFormat: "text", JustOnceScope: "session"}
	err := RunMCP(context.Background(), cfg, ServeOptions{Transport: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
