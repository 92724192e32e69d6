// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package store

import "time"

// --- Dataset types ---

// Dataset describes one ingested tabular source. Created once at ingestion
// time; ObjectCount is maintained by the ingester as objects are appended
// and the record is immutable otherwise.
type Dataset struct {
	ID          string
	Name        string
	SourceType  string
	Filename    string
	Fields      []string
	ObjectCount int
	CreatedAt   time.Time
}

// DatasetMeta is the caller-supplied part of a new Dataset.
type DatasetMeta struct {
	Name       string
	SourceType string
	Filename   string
	Fields     []string
}

// --- Object types ---

// Object is one collection record. UID is globally unique across datasets
// (derived from dataset identity plus the record's own identifier at
// ingestion time). Metadata holds every original field verbatim; the
// projected display fields are duplicated out of it for cheap listing.
//
// Seq is the store-assigned insertion sequence and defines the
// deterministic ascending creation order used by batch selection. It is
// populated on reads and ignored on insert.
type Object struct {
	Seq        int64
	UID        string
	DatasetID  string
	OriginalID string
	Title      string
	Creator    string
	HasImage   bool
	ImageURL   string
	ObjectURL  string
	Metadata   map[string]string
	Embedded   bool
	CreatedAt  time.Time
}

// Ref is the lightweight display projection of an Object carried by
// search snapshots and results: everything a result card needs, nothing
// more.
type Ref struct {
	UID        string `json:"uid"`
	DatasetID  string `json:"dataset_id"`
	OriginalID string `json:"original_id"`
	Title      string `json:"title"`
	Creator    string `json:"creator"`
	HasImage   bool   `json:"has_image"`
	ImageURL   string `json:"image_url,omitempty"`
	ObjectURL  string `json:"object_url,omitempty"`
}

// Ref returns the display projection of o.
func (o *Object) Ref() Ref {
	return Ref{
		UID:        o.UID,
		DatasetID:  o.DatasetID,
		OriginalID: o.OriginalID,
		Title:      o.Title,
		Creator:    o.Creator,
		HasImage:   o.HasImage,
		ImageURL:   o.ImageURL,
		ObjectURL:  o.ObjectURL,
	}
}

// EmbeddedObject pairs a display projection with its stored vector, in
// store insertion order. FetchEmbedded returns these for cache builds.
type EmbeddedObject struct {
	Ref    Ref
	Vector []float32
}

// VectorUpdate is one uid-to-vector assignment inside an atomic
// MarkEmbedded batch.
type VectorUpdate struct {
	UID    string
	Vector []float32
}

// --- Scope ---

// Scope restricts counting and retrieval to one dataset and/or to objects
// that carry an image. The zero value means "everything". Scope is
// comparable and serves directly as a cache key.
type Scope struct {
	DatasetID  string
	ImagesOnly bool
}

// All is the unrestricted scope.
var All = Scope{}

// String renders the scope for logs and error context.
func (s Scope) String() string {
	ds := s.DatasetID
	if ds == "" {
		ds = "all"
	}
	if s.ImagesOnly {
		return ds + "+images"
	}
	return ds
}
