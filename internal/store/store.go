// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package store defines the durable catalog contract the rest of curio is
// written against: datasets, objects, and their embedding lifecycle.
// Backends register themselves through the factory in this package; the
// sqlite backend is the only one shipped.
package store

import "context"

// DatasetStore manages the registry of ingested datasets.
type DatasetStore interface {
	CreateDataset(ctx context.Context, meta DatasetMeta) (*Dataset, error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]*Dataset, error)
}

// ObjectStore manages collection objects and their embedding state.
//
// Embedding state transitions monotonically: objects are inserted with a
// null vector and MarkEmbedded fills it exactly once. Nothing un-embeds or
// re-embeds an object, which is what makes count-based cache invalidation
// sound (see internal/search).
type ObjectStore interface {
	// AppendObjects inserts a batch with embedding=null and bumps the
	// dataset's object count, all in one transaction.
	AppendObjects(ctx context.Context, datasetID string, batch []Object) error

	// ListObjects returns up to limit objects matching scope in insertion
	// order. limit <= 0 applies a server-side default.
	ListObjects(ctx context.Context, scope Scope, limit int) ([]*Object, error)

	// PendingObjects returns up to limit objects whose embedding is still
	// null, in ascending insertion order. Repeated calls observe current
	// store state, so drained objects never reappear.
	PendingObjects(ctx context.Context, limit int) ([]*Object, error)

	// MarkEmbedded persists a batch of vectors in a single transaction:
	// either every update lands or none do. Only null embeddings are
	// filled; an already-embedded uid is left untouched.
	MarkEmbedded(ctx context.Context, updates []VectorUpdate) error

	// CountObjects returns the number of objects matching scope.
	CountObjects(ctx context.Context, scope Scope) (int, error)

	// CountEmbedded returns the number of embedded objects matching scope.
	// It applies exactly the same filter as FetchEmbedded so a count can
	// never disagree with the rows a fetch would return.
	CountEmbedded(ctx context.Context, scope Scope) (int, error)

	// FetchEmbedded returns every embedded object matching scope with its
	// decoded vector, in ascending insertion order.
	FetchEmbedded(ctx context.Context, scope Scope) ([]EmbeddedObject, error)

	// GetObjects returns the objects for the given uids, keyed by uid.
	// Unknown uids are simply absent from the result.
	GetObjects(ctx context.Context, uids []string) (map[string]*Object, error)
}

// CatalogStore is the full store surface a backend provides.
type CatalogStore interface {
	DatasetStore
	ObjectStore
	Close() error
}
