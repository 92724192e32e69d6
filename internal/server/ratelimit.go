// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// RateLimitConfig configures per-IP request throttling. Search and batch
// endpoints fan out to paid embedding APIs, so a runaway client is a cost
// problem before it is a load problem.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP. Zero disables
	// limiting.
	RequestsPerSecond float64
	// Burst is how many requests above the sustained rate a client may
	// spike before being throttled.
	Burst int
	// MaxVisitors caps how many client IPs are tracked at once. Zero
	// applies a default of 10000.
	MaxVisitors int
}

// Validate checks the config and applies the MaxVisitors default.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerSecond < 0 {
		return curioerr.Errorf(curioerr.CodeServerConfigInvalid,
			"rate limit requests per second must not be negative, got %g", c.RequestsPerSecond)
	}
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		return curioerr.Errorf(curioerr.CodeServerConfigInvalid,
			"rate limit burst must be positive when a rate is set, got %d", c.Burst)
	}
	if c.MaxVisitors < 0 {
		return curioerr.Errorf(curioerr.CodeServerConfigInvalid,
			"rate limit max visitors must not be negative, got %d", c.MaxVisitors)
	}
	if c.MaxVisitors == 0 {
		c.MaxVisitors = 10000
	}
	return nil
}

// rateLimiter maintains a token bucket per client IP.
type rateLimiter struct {
	rate        float64
	burst       float64
	maxVisitors int

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	tokens     float64
	lastSeen   time.Time
	lastRefill time.Time
}

// newRateLimiter returns nil when cfg disables limiting. cfg must already
// be validated.
func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return &rateLimiter{
		rate:        cfg.RequestsPerSecond,
		burst:       float64(cfg.Burst),
		maxVisitors: cfg.MaxVisitors,
		visitors:    make(map[string]*visitor),
	}
}

// allow takes one token from ip's bucket, refilling for elapsed time first.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{tokens: rl.burst, lastRefill: now}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	v.tokens += now.Sub(v.lastRefill).Seconds() * rl.rate
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	v.lastRefill = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// sweep drops visitors idle for more than ten minutes, then evicts the
// oldest remaining entries until the map fits under maxVisitors.
func (rl *rateLimiter) sweep(now time.Time) {
	const staleAfter = 10 * time.Minute

	rl.mu.Lock()
	defer rl.mu.Unlock()

	type entry struct {
		ip       string
		lastSeen time.Time
	}
	live := make([]entry, 0, len(rl.visitors))
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > staleAfter {
			delete(rl.visitors, ip)
			continue
		}
		live = append(live, entry{ip: ip, lastSeen: v.lastSeen})
	}

	if rl.maxVisitors <= 0 || len(live) <= rl.maxVisitors {
		return
	}

	slices.SortFunc(live, func(a, b entry) int { return a.lastSeen.Compare(b.lastSeen) })
	evict := len(live) - rl.maxVisitors
	for i := 0; i < evict; i++ {
		delete(rl.visitors, live[i].ip)
	}
	slog.Warn("rate limiter visitor cap enforced",
		"evicted", evict, "max_visitors", rl.maxVisitors, "remaining", len(rl.visitors))
}

// run sweeps periodically until done closes.
func (rl *rateLimiter) run(done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-done:
			return
		}
	}
}

// middleware rejects requests whose client IP is over budget. The port is
// stripped from RemoteAddr so every connection from one host shares a
// bucket.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// Already bare, e.g. rewritten by the trusted proxy middleware.
			ip = r.RemoteAddr
		}

		if !rl.allow(ip, time.Now()) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
