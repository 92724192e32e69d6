// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RateLimitConfig
		wantErr bool
	}{
		{name: "disabled", cfg: RateLimitConfig{}, wantErr: false},
		{name: "enabled", cfg: RateLimitConfig{RequestsPerSecond: 5, Burst: 10}, wantErr: false},
		{name: "negative rate", cfg: RateLimitConfig{RequestsPerSecond: -1, Burst: 10}, wantErr: true},
		{name: "rate without burst", cfg: RateLimitConfig{RequestsPerSecond: 5}, wantErr: true},
		{name: "negative visitors", cfg: RateLimitConfig{RequestsPerSecond: 5, Burst: 10, MaxVisitors: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, curioerr.HasCode(err, curioerr.CodeServerConfigInvalid))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRateLimitConfig_ValidateAppliesVisitorDefault(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 5, Burst: 10}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10000, cfg.MaxVisitors)
}

func TestNewRateLimiter_DisabledReturnsNil(t *testing.T) {
	assert.Nil(t, newRateLimiter(RateLimitConfig{}))
	assert.NotNil(t, newRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
}

func TestRateLimitMiddleware_WithinBurst(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 5})
	wrapped := rl.middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i)
		assert.Equal(t, "ok", w.Body.String())
	}
}

func TestRateLimitMiddleware_ExceedsBurst(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 3})
	wrapped := rl.middleware(okHandler())

	ip := "192.168.1.1:12345"
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimitMiddleware_PerIPIsolation(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 2})
	wrapped := rl.middleware(okHandler())

	// Exhaust the first IP's budget.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
	}

	// A different IP still has its full burst.
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.2:54321"
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_RefillOverTime(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()

	assert.True(t, rl.allow("10.0.0.1", now))
	assert.False(t, rl.allow("10.0.0.1", now))

	// One second later a full token is back.
	assert.True(t, rl.allow("10.0.0.1", now.Add(time.Second)))

	// Refill never exceeds the burst.
	later := now.Add(time.Hour)
	assert.True(t, rl.allow("10.0.0.1", later))
	assert.False(t, rl.allow("10.0.0.1", later))
}

func TestRateLimiter_SweepEvictsStale(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 5})
	now := time.Now()

	rl.allow("10.0.0.1", now)
	rl.allow("10.0.0.2", now.Add(15*time.Minute))

	rl.sweep(now.Add(20 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimiter_SweepEnforcesCap(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 5, MaxVisitors: 3})
	now := time.Now()

	// Five visitors, oldest first.
	for i := 0; i < 5; i++ {
		rl.allow(fmt.Sprintf("10.0.0.%d", i), now.Add(time.Duration(i)*time.Second))
	}

	rl.sweep(now.Add(10 * time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.visitors, 3)
	assert.NotContains(t, rl.visitors, "10.0.0.0")
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.4")
}

func TestServer_RateLimitApplied(t *testing.T) {
	srv, err := New(Config{
		ListenAddr: "127.0.0.1:0",
		RateLimit:  RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
	})
	require.NoError(t, err)

	// httptest requests share a RemoteAddr, so the third request in the
	// same instant must blow the budget.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestServer_InvalidRateLimitConfig(t *testing.T) {
	_, err := New(Config{
		ListenAddr: "127.0.0.1:0",
		RateLimit:  RateLimitConfig{RequestsPerSecond: -1},
	})
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeServerConfigInvalid))
}
