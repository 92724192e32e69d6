// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package search answers text similarity queries over cached projections of
// the embedded object set.
package search

import (
	"context"
	"sync"

	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Entry is one scope's queryable projection: embedded vectors and their
// refs in matching order, insertion-ordered, plus the embedded count the
// projection was built from.
type Entry struct {
	Vectors [][]float32
	Refs    []store.Ref
	Count   int
}

// Manager caches one projection per search scope and rebuilds it only when
// the scope has grown. Comparing embedded counts is an exact staleness
// signal solely because embeddings are append-only; if re-embedding or
// deletion ever lands, this check must move to a version counter bumped on
// every mutation.
//
// Entries are never evicted: the key space is bounded by the number of
// datasets times the image filter, and projections are disposable derived
// state that the store can always rebuild.
type Manager struct {
	store store.ObjectStore

	mu      sync.Mutex
	entries map[store.Scope]*Entry
	locks   map[store.Scope]*sync.Mutex
}

// NewManager creates a cache manager over the given store.
func NewManager(st store.ObjectStore) *Manager {
	return &Manager{
		store:   st,
		entries: map[store.Scope]*Entry{},
		locks:   map[store.Scope]*sync.Mutex{},
	}
}

// Get returns the projection for scope, rebuilding it first when the
// scope's embedded count no longer matches the cached one. Rebuilds for the
// same scope run one at a time; distinct scopes rebuild independently.
func (m *Manager) Get(ctx context.Context, scope store.Scope) (*Entry, error) {
	count, err := m.store.CountEmbedded(ctx, scope)
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeSearchCacheBuildFailure,
			"counting embedded objects for scope %s", scope)
	}

	if entry := m.lookup(scope, count); entry != nil {
		return entry, nil
	}

	lock := m.keyLock(scope)
	lock.Lock()
	defer lock.Unlock()

	// A rebuild that finished while we waited may already be fresh enough.
	if entry := m.lookup(scope, count); entry != nil {
		return entry, nil
	}

	embedded, err := m.store.FetchEmbedded(ctx, scope)
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeSearchCacheBuildFailure,
			"fetching embedded objects for scope %s", scope)
	}

	entry := &Entry{
		Vectors: make([][]float32, 0, len(embedded)),
		Refs:    make([]store.Ref, 0, len(embedded)),
		Count:   len(embedded),
	}
	for _, eo := range embedded {
		entry.Vectors = append(entry.Vectors, eo.Vector)
		entry.Refs = append(entry.Refs, eo.Ref)
	}

	m.mu.Lock()
	m.entries[scope] = entry
	m.mu.Unlock()

	return entry, nil
}

func (m *Manager) lookup(scope store.Scope, count int) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[scope]; ok && entry.Count == count {
		return entry
	}
	return nil
}

func (m *Manager) keyLock(scope store.Scope) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[scope] = lock
	}
	return lock
}
