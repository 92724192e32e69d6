// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curio-dev/curio/internal/index"
	"github.com/curio-dev/curio/internal/search"
	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) error {
	if svc == nil || svc.Ingester == nil || svc.Catalog == nil || svc.Indexer == nil || svc.Searcher == nil {
		return curioerr.New(curioerr.CodeServerConfigInvalid, "ingester, catalog, indexer and searcher services are all required")
	}
	s.services = svc
	s.registerRoutes()
	return nil
}

func (s *Server) registerRoutes() {
	// Dataset endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "create-dataset",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets",
		Summary:     "Upload a CSV document as a new dataset",
		Tags:        []string{"datasets"},
	}, s.handleCreateDataset)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-datasets",
		Method:      http.MethodGet,
		Path:        "/api/v1/datasets",
		Summary:     "List datasets",
		Tags:        []string{"datasets"},
	}, s.handleListDatasets)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-dataset",
		Method:      http.MethodGet,
		Path:        "/api/v1/datasets/{id}",
		Summary:     "Get dataset details",
		Tags:        []string{"datasets"},
	}, s.handleGetDataset)

	// Object endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-objects",
		Method:      http.MethodGet,
		Path:        "/api/v1/objects",
		Summary:     "List objects",
		Tags:        []string{"objects"},
	}, s.handleListObjects)

	// Index endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "process-batch",
		Method:      http.MethodPost,
		Path:        "/api/v1/index/batches",
		Summary:     "Embed the next batch of pending objects",
		Tags:        []string{"index"},
	}, s.handleProcessBatch)

	huma.Register(s.api, huma.Operation{
		OperationID: "index-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/index/status",
		Summary:     "Report embedding progress",
		Tags:        []string{"index"},
	}, s.handleIndexStatus)

	// Search endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Rank objects by similarity to a text query",
		Tags:        []string{"search"},
	}, s.handleSearch)
}

// --- Request/Response types for huma ---

type createDatasetInput struct {
	Body struct {
		Name       string `json:"name,omitempty" doc:"Display name; defaults to the file name"`
		SourceType string `json:"source_type,omitempty" doc:"Origin tag"`
		Filename   string `json:"filename" minLength:"1" doc:"Name of the uploaded file"`
		Content    string `json:"content" minLength:"1" doc:"CSV document with a header row"`
	}
}
type createDatasetOutput struct {
	Body DatasetSummary
}

type listDatasetsOutput struct {
	Body struct {
		Datasets []DatasetSummary `json:"datasets"`
	}
}

type getDatasetInput struct {
	ID string `path:"id"`
}
type getDatasetOutput struct {
	Body DatasetSummary
}

type listObjectsInput struct {
	DatasetID  string `query:"dataset_id" doc:"Restrict to one dataset"`
	ImagesOnly bool   `query:"images_only" doc:"Restrict to objects with images"`
	Limit      int    `query:"limit" minimum:"0" doc:"Maximum rows returned (default 500)"`
}
type listObjectsOutput struct {
	Body struct {
		Objects []ObjectSummary `json:"objects"`
		Count   int             `json:"count" doc:"Number of objects returned"`
	}
}

type processBatchInput struct {
	Body struct {
		BatchSize int `json:"batch_size,omitempty" minimum:"0" doc:"Objects per batch; 0 uses the configured default"`
	}
}
type processBatchOutput struct {
	Body index.BatchResult
}

type indexStatusOutput struct {
	Body index.Status
}

type searchInput struct {
	Query      string `query:"q" doc:"Free-text query"`
	K          int    `query:"k" minimum:"0" doc:"Result count; 0 uses the configured default"`
	DatasetID  string `query:"dataset_id" doc:"Restrict to one dataset"`
	ImagesOnly bool   `query:"images_only" doc:"Restrict to objects with images"`
}
type searchOutput struct {
	Body struct {
		Query   string         `json:"query" doc:"The query as searched"`
		Results []SearchResult `json:"results"`
		Count   int            `json:"count" doc:"Number of results returned"`
	}
}

// --- Handlers ---

func (s *Server) handleCreateDataset(ctx context.Context, input *createDatasetInput) (*createDatasetOutput, error) {
	ds, err := s.services.Ingester.Ingest(ctx, store.DatasetMeta{
		Name:       input.Body.Name,
		SourceType: input.Body.SourceType,
		Filename:   input.Body.Filename,
	}, strings.NewReader(input.Body.Content))
	if err != nil {
		return nil, humaError(err, "ingesting dataset")
	}
	return &createDatasetOutput{Body: datasetSummary(ds)}, nil
}

func (s *Server) handleListDatasets(ctx context.Context, _ *struct{}) (*listDatasetsOutput, error) {
	datasets, err := s.services.Catalog.ListDatasets(ctx)
	if err != nil {
		return nil, humaError(err, "listing datasets")
	}
	out := &listDatasetsOutput{}
	out.Body.Datasets = make([]DatasetSummary, 0, len(datasets))
	for _, ds := range datasets {
		out.Body.Datasets = append(out.Body.Datasets, datasetSummary(ds))
	}
	return out, nil
}

func (s *Server) handleGetDataset(ctx context.Context, input *getDatasetInput) (*getDatasetOutput, error) {
	ds, err := s.services.Catalog.GetDataset(ctx, input.ID)
	if err != nil {
		return nil, humaError(err, "getting dataset")
	}
	return &getDatasetOutput{Body: datasetSummary(ds)}, nil
}

func (s *Server) handleListObjects(ctx context.Context, input *listObjectsInput) (*listObjectsOutput, error) {
	scope := store.Scope{DatasetID: input.DatasetID, ImagesOnly: input.ImagesOnly}
	objects, err := s.services.Catalog.ListObjects(ctx, scope, input.Limit)
	if err != nil {
		return nil, humaError(err, "listing objects")
	}
	out := &listObjectsOutput{}
	out.Body.Objects = make([]ObjectSummary, 0, len(objects))
	for _, obj := range objects {
		out.Body.Objects = append(out.Body.Objects, objectSummary(obj))
	}
	out.Body.Count = len(out.Body.Objects)
	return out, nil
}

func (s *Server) handleProcessBatch(ctx context.Context, input *processBatchInput) (*processBatchOutput, error) {
	result, err := s.services.Indexer.ProcessBatch(ctx, input.Body.BatchSize)
	if err != nil {
		return nil, humaError(err, "processing batch")
	}
	return &processBatchOutput{Body: *result}, nil
}

func (s *Server) handleIndexStatus(ctx context.Context, _ *struct{}) (*indexStatusOutput, error) {
	status, err := s.services.Indexer.JobStatus(ctx)
	if err != nil {
		return nil, humaError(err, "reading index status")
	}
	return &indexStatusOutput{Body: *status}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	k := input.K
	if k <= 0 {
		k = s.cfg.SearchDefaultK
	}
	if k > s.cfg.SearchMaxK {
		k = s.cfg.SearchMaxK
	}

	scope := store.Scope{DatasetID: input.DatasetID, ImagesOnly: input.ImagesOnly}
	hits, err := s.services.Searcher.Search(ctx, input.Query, k, scope)
	if err != nil {
		return nil, humaError(err, "searching")
	}

	out := &searchOutput{}
	out.Body.Query = strings.TrimSpace(input.Query)
	out.Body.Results = s.enrichHits(ctx, hits)
	out.Body.Count = len(out.Body.Results)
	return out, nil
}

// enrichHits joins search hits with their stored objects so responses carry
// full metadata. A hit whose object cannot be loaded falls back to the
// projection kept in the search snapshot.
func (s *Server) enrichHits(ctx context.Context, hits []search.Result) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	if len(hits) == 0 {
		return results
	}

	uids := make([]string, len(hits))
	for i, hit := range hits {
		uids[i] = hit.Ref.UID
	}
	objects, err := s.services.Catalog.GetObjects(ctx, uids)
	if err != nil {
		objects = nil
	}

	for _, hit := range hits {
		if obj, ok := objects[hit.Ref.UID]; ok {
			results = append(results, SearchResult{Score: hit.Score, Object: objectSummary(obj)})
			continue
		}
		results = append(results, SearchResult{Score: hit.Score, Object: refSummary(hit.Ref)})
	}
	return results
}

// humaError maps a coded error onto the matching huma status error.
func humaError(err error, msg string) error {
	switch curioerr.HTTPStatus(err) {
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg, err)
	case http.StatusNotFound:
		return huma.Error404NotFound(msg, err)
	case http.StatusBadGateway:
		return huma.Error502BadGateway(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
