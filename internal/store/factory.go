// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package store

import (
	"sync"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// CatalogStoreFactory creates a catalog store rooted at the given data
// directory.
type CatalogStoreFactory func(dataPath string) (CatalogStore, error)

var (
	catalogFactories = map[string]CatalogStoreFactory{}
	factoriesMu      sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory CatalogStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	catalogFactories[name] = factory
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewCatalogStore creates the catalog store for the configured backend.
func NewCatalogStore(cfg *StorageConfig, dataPath string) (CatalogStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := catalogFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, curioerr.Errorf(curioerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	return factory(dataPath)
}
