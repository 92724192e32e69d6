// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package sqlite

import (
	"path/filepath"

	"github.com/curio-dev/curio/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newCatalogStore)
}

func newCatalogStore(dataPath string) (store.CatalogStore, error) {
	return NewCatalogStore(filepath.Join(dataPath, "curio.db"))
}
