// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package store

import (
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Validate checks that the DatasetMeta has all required fields set. The
// ingester fills Name and SourceType defaults before the store sees the
// meta, so a failure here means a caller bypassed it.
func (m DatasetMeta) Validate() error {
	if m.Name == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "dataset: Name is required")
	}
	if m.SourceType == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "dataset: SourceType is required")
	}
	if m.Filename == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "dataset: Filename is required")
	}
	if len(m.Fields) == 0 {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "dataset: Fields must name at least one column")
	}
	return nil
}

// Validate checks that the Object carries the identity fields every stored
// row must have. Display fields and metadata are free-form and may be empty.
func (o Object) Validate() error {
	if o.UID == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "object: UID is required")
	}
	if o.DatasetID == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "object: DatasetID is required")
	}
	if o.OriginalID == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "object: OriginalID is required")
	}
	// UID embeds the dataset identity, so a mismatch means the caller mixed
	// up batches.
	if o.DatasetID != "" && !hasUIDPrefix(o.UID, o.DatasetID) {
		return curioerr.Errorf(curioerr.CodeStoreInvalidInput, "object: UID %q does not belong to dataset %q", o.UID, o.DatasetID)
	}
	return nil
}

// Validate checks that the VectorUpdate names an object and carries a
// non-empty vector. Empty vectors would poison matrix builds downstream.
func (u VectorUpdate) Validate() error {
	if u.UID == "" {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "vector update: UID is required")
	}
	if len(u.Vector) == 0 {
		return curioerr.New(curioerr.CodeStoreInvalidInput, "vector update: Vector must not be empty")
	}
	return nil
}

func hasUIDPrefix(uid, datasetID string) bool {
	return len(uid) > len(datasetID)+1 &&
		uid[:len(datasetID)] == datasetID &&
		uid[len(datasetID)] == ':'
}
