// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"context"
	"io"
	"time"

	"github.com/curio-dev/curio/internal/index"
	"github.com/curio-dev/curio/internal/search"
	"github.com/curio-dev/curio/internal/store"
	"github.com/curio-dev/curio/pkg/health"
)

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
type Services struct {
	Ingester IngestService
	Catalog  CatalogService
	Indexer  IndexService
	Searcher SearchService

	// Embedding describes the configured provider for the health endpoint.
	// Optional; nil leaves provider status out of health responses.
	Embedding *EmbeddingStatus
}

// EmbeddingStatus identifies the embedding provider and carries its
// availability tracker.
type EmbeddingStatus struct {
	Provider   string
	Model      string
	Dimensions int
	Tracker    *health.Tracker
}

// IngestService loads uploaded documents into the catalog.
type IngestService interface {
	Ingest(ctx context.Context, meta store.DatasetMeta, r io.Reader) (*store.Dataset, error)
}

// CatalogService provides read access to datasets and objects. The catalog
// store satisfies it directly.
type CatalogService interface {
	GetDataset(ctx context.Context, id string) (*store.Dataset, error)
	ListDatasets(ctx context.Context) ([]*store.Dataset, error)
	ListObjects(ctx context.Context, scope store.Scope, limit int) ([]*store.Object, error)
	GetObjects(ctx context.Context, uids []string) (map[string]*store.Object, error)
}

// IndexService drives the embedding pipeline.
type IndexService interface {
	ProcessBatch(ctx context.Context, batchSize int) (*index.BatchResult, error)
	JobStatus(ctx context.Context) (*index.Status, error)
}

// SearchService answers similarity queries.
type SearchService interface {
	Search(ctx context.Context, query string, k int, scope store.Scope) ([]search.Result, error)
}

// DatasetSummary is the REST representation of a dataset.
type DatasetSummary struct {
	ID          string    `json:"id" doc:"Dataset identifier"`
	Name        string    `json:"name" doc:"Display name"`
	SourceType  string    `json:"source_type" doc:"Origin tag"`
	Filename    string    `json:"filename" doc:"Originating file name"`
	Fields      []string  `json:"fields" doc:"Column names from the source header"`
	ObjectCount int       `json:"object_count" doc:"Objects in the dataset"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// ObjectSummary is the REST representation of a collection object.
type ObjectSummary struct {
	UID        string            `json:"uid" doc:"Store-wide unique identifier"`
	DatasetID  string            `json:"dataset_id" doc:"Owning dataset"`
	OriginalID string            `json:"original_id" doc:"Identifier from the source document"`
	Title      string            `json:"title" doc:"Display title"`
	Creator    string            `json:"creator" doc:"Artist or maker"`
	HasImage   bool              `json:"has_image" doc:"Whether the object has an image"`
	ImageURL   string            `json:"image_url,omitempty" doc:"Image location"`
	ObjectURL  string            `json:"object_url,omitempty" doc:"Collection page"`
	Embedded   bool              `json:"embedded" doc:"Whether the object has been embedded"`
	Metadata   map[string]string `json:"metadata,omitempty" doc:"All fields from the source row"`
}

// SearchResult pairs a similarity score with the matched object.
type SearchResult struct {
	Score  float32       `json:"score" doc:"Cosine similarity in [-1, 1]"`
	Object ObjectSummary `json:"object"`
}

func datasetSummary(ds *store.Dataset) DatasetSummary {
	return DatasetSummary{
		ID:          ds.ID,
		Name:        ds.Name,
		SourceType:  ds.SourceType,
		Filename:    ds.Filename,
		Fields:      ds.Fields,
		ObjectCount: ds.ObjectCount,
		CreatedAt:   ds.CreatedAt,
	}
}

func objectSummary(o *store.Object) ObjectSummary {
	return ObjectSummary{
		UID:        o.UID,
		DatasetID:  o.DatasetID,
		OriginalID: o.OriginalID,
		Title:      o.Title,
		Creator:    o.Creator,
		HasImage:   o.HasImage,
		ImageURL:   o.ImageURL,
		ObjectURL:  o.ObjectURL,
		Embedded:   o.Embedded,
		Metadata:   o.Metadata,
	}
}

// refSummary projects a search hit when the full object is unavailable.
func refSummary(ref store.Ref) ObjectSummary {
	return ObjectSummary{
		UID:        ref.UID,
		DatasetID:  ref.DatasetID,
		OriginalID: ref.OriginalID,
		Title:      ref.Title,
		Creator:    ref.Creator,
		HasImage:   ref.HasImage,
		ImageURL:   ref.ImageURL,
		ObjectURL:  ref.ObjectURL,
		Embedded:   true,
	}
}
