// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/curio-dev/curio/internal/index"
	"github.com/curio-dev/curio/internal/search"
	"github.com/curio-dev/curio/internal/server"
	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec creates a server with all routes registered and extracts the
// OpenAPI spec that huma generates from the Go type annotations.
func generateSpec() ([]byte, error) {
	srv, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
	})
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "creating server: %w", err)
	}

	// No-op service stubs so all routes are registered for schema
	// discovery. Handlers are never invoked during spec generation.
	err = srv.RegisterServices(&server.Services{
		Ingester: &stubIngester{},
		Catalog:  &stubCatalog{},
		Indexer:  &stubIndexer{},
		Searcher: &stubSearcher{},
	})
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "registering services: %w", err)
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

// No-op service stubs for spec generation. Methods are never called.

type stubIngester struct{}

func (s *stubIngester) Ingest(context.Context, store.DatasetMeta, io.Reader) (*store.Dataset, error) {
	return nil, nil
}

type stubCatalog struct{}

func (s *stubCatalog) GetDataset(context.Context, string) (*store.Dataset, error) { return nil, nil }
func (s *stubCatalog) ListDatasets(context.Context) ([]*store.Dataset, error)     { return nil, nil }
func (s *stubCatalog) ListObjects(context.Context, store.Scope, int) ([]*store.Object, error) {
	return nil, nil
}

func (s *stubCatalog) GetObjects(context.Context, []string) (map[string]*store.Object, error) {
	return nil, nil
}

type stubIndexer struct{}

func (s *stubIndexer) ProcessBatch(context.Context, int) (*index.BatchResult, error) {
	return nil, nil
}
func (s *stubIndexer) JobStatus(context.Context) (*index.Status, error) { return nil, nil }

type stubSearcher struct{}

func (s *stubSearcher) Search(context.Context, string, int, store.Scope) ([]search.Result, error) {
	return nil, nil
}
