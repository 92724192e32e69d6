// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// defaultServerAddr matches the server.listen config default.
const defaultServerAddr = "127.0.0.1:8787"

// defaultHTTPClient is the package-level HTTP client used by server commands.
// Overridden in tests via httptest. The generous timeout covers batch
// embedding requests, which wait on the model provider.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Minute,
}

// apiClient provides HTTP access to a running Curio server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient creates a client targeting the given host:port address.
func newAPIClient(addr string) *apiClient {
	return &apiClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *apiClient) getJSON(path string, dest interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return curioerr.New(curioerr.CodeCLIServerNotRunning, "server is not running (connection refused)")
		}
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	return decodeResponse(resp, dest)
}

// postJSON performs a POST request with a JSON body and decodes the JSON
// response into dest.
func (c *apiClient) postJSON(path string, body interface{}, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "encoding request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		if isDialError(err) {
			return curioerr.New(curioerr.CodeCLIServerNotRunning, "server is not running (connection refused)")
		}
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	return decodeResponse(resp, dest)
}

func decodeResponse(resp *http.Response, dest interface{}) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return curioerr.Errorf(curioerr.CodeCLIResponseInvalid, "invalid response: %w", err)
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
