// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package health tracks the availability of upstream dependencies, such
// as embedding providers, and exposes point-in-time snapshots for the
// health endpoint.
package health

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a dependency stays marked unavailable
// after a failure before it becomes eligible again.
const DefaultCooldown = 30 * time.Second

// Metrics is a snapshot of a dependency's health state, safe to
// serialize to JSON.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Available     bool       `json:"available"`
}

// Tracker records successes and failures for one dependency. It starts
// healthy; a failure marks it unavailable until the cooldown elapses or
// a success lands, whichever comes first.
type Tracker struct {
	mu           sync.RWMutex
	healthy      bool
	failedAt     time.Time
	cooldown     time.Duration
	failureCount int64
	nowFunc      func() time.Time
}

// NewTracker creates a Tracker that starts healthy. A non-positive
// cooldown falls back to DefaultCooldown.
func NewTracker(cooldown time.Duration) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Tracker{
		healthy:  true,
		cooldown: cooldown,
		nowFunc:  time.Now,
	}
}

// Available reports whether the dependency is healthy or its cooldown
// has elapsed.
func (t *Tracker) Available() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.availableLocked()
}

// availableLocked needs at least t.mu.RLock held.
func (t *Tracker) availableLocked() bool {
	if t.healthy {
		return true
	}
	return t.nowFunc().Sub(t.failedAt) >= t.cooldown
}

// RecordSuccess marks the dependency healthy.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	t.healthy = true
	t.mu.Unlock()
}

// RecordFailure marks the dependency unhealthy and bumps the cumulative
// failure count.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	t.healthy = false
	t.failedAt = t.nowFunc()
	t.failureCount++
	t.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (t *Tracker) SetNowFunc(fn func() time.Time) {
	t.mu.Lock()
	t.nowFunc = fn
	t.mu.Unlock()
}

// Metrics returns a snapshot of the tracker's state. The result holds no
// references to tracker internals.
func (t *Tracker) Metrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := Metrics{
		FailureCount: t.failureCount,
		Available:    t.availableLocked(),
	}
	if t.failureCount > 0 {
		at := t.failedAt
		m.LastFailureAt = &at
	}
	if !t.healthy {
		until := t.failedAt.Add(t.cooldown)
		m.CooldownUntil = &until
	}
	return m
}
