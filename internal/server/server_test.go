// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/curio-dev/curio/internal/server"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_New(t *testing.T) {
	srv, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
	})
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestServer_New_EmptyListenAddr(t *testing.T) {
	_, err := server.New(server.Config{})
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeServerConfigInvalid), "expected CodeServerConfigInvalid, got %s", curioerr.CodeOf(err))
	assert.Contains(t, err.Error(), "listen address is required")
}

func TestServer_OpenAPISpec(t *testing.T) {
	srv, _ := newTestServer(t, server.Config{})

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "openapi")

	body := w.Body.String()
	assert.Contains(t, body, "/api/v1/search", "OpenAPI spec must include the search endpoint path")
	assert.Contains(t, body, "create-dataset", "OpenAPI spec must include the create-dataset operation ID")
	assert.Contains(t, body, "process-batch", "OpenAPI spec must include the process-batch operation ID")
}

func TestServer_CORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, server.Config{
		CORSOrigins: []string{"http://localhost:5173"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/datasets", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_GracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t, server.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Wait for context cancellation to trigger shutdown.
	<-ctx.Done()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down within timeout")
	}
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	// Grab a port, then ask the server to listen on it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	srv, err := server.New(server.Config{ListenAddr: ln.Addr().String()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = srv.Start(ctx)
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeServerStartFailure))
}
