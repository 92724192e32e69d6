// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curio-dev/curio/internal/store"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "curio-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// testMeta returns a complete DatasetMeta that passes store validation.
func testMeta(name string) store.DatasetMeta {
	return store.DatasetMeta{
		Name:       name,
		SourceType: "csv",
		Filename:   name + ".csv",
		Fields:     []string{"ObjectID", "Title"},
	}
}
