// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/curio-dev/curio/internal/config"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAppConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Listen: "127.0.0.1:0"},
		Storage:   config.StorageConfig{Backend: "sqlite", DataDir: t.TempDir()},
		Embedding: config.EmbeddingConfig{Provider: "hash", Dimensions: 256},
		Index:     config.IndexConfig{BatchSize: 128},
		Search:    config.SearchConfig{DefaultK: 10, MaxK: 100},
		Logging:   config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestWireApp(t *testing.T) {
	app, err := WireApp(testAppConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Embedder)
	assert.NotNil(t, app.Processor)
	assert.NotNil(t, app.Engine)
	assert.NotNil(t, app.Ingester)
}

func TestWireApp_UnknownProvider(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Embedding.Provider = "nonexistent"

	_, err := WireApp(cfg)
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeCLISetupFailure))
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestWireApp_UnknownBackend(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Storage.Backend = "postgres"

	_, err := WireApp(cfg)
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeCLISetupFailure))
	assert.Contains(t, err.Error(), "postgres")
}

func TestApp_GracefulShutdown(t *testing.T) {
	app, err := WireApp(testAppConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Start and immediately cancel. Should shut down cleanly.
	err = app.Start(ctx)
	assert.NoError(t, err)
}

// TestWireApp_IngestIndexSearchFlow drives the wired app through its full
// lifecycle over the HTTP surface: upload a dataset, embed it, search it.
func TestWireApp_IngestIndexSearchFlow(t *testing.T) {
	app, err := WireApp(testAppConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	h := app.Server.Handler()

	csv := "ObjectID,Title,ArtistDisplayName,Medium\n" +
		"1,Bronze Satyr,Unknown,Bronze\n" +
		"2,Marble Bust of Athena,Phidias,Marble\n" +
		"3,Silk Tapestry,Anonymous,Silk\n"
	uploadBody, err := json.Marshal(map[string]string{"filename": "met.csv", "content": csv})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", bytes.NewReader(uploadBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ds struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ObjectCount int    `json:"object_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, "met.csv", ds.Name)
	assert.Equal(t, 3, ds.ObjectCount)

	// One batch covers all three objects.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/index/batches", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var batch struct {
		EmbeddedThisBatch int  `json:"embedded_this_batch"`
		Remaining         int  `json:"remaining"`
		Done              bool `json:"done"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 3, batch.EmbeddedThisBatch)
	assert.Equal(t, 0, batch.Remaining)
	assert.True(t, batch.Done)

	// The object whose text matches the query ranks first.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=Marble+Bust+of+Athena", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Results []struct {
			Score  float32 `json:"score"`
			Object struct {
				UID   string `json:"uid"`
				Title string `json:"title"`
			} `json:"object"`
		} `json:"results"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 3, res.Count)
	assert.Equal(t, ds.ID+":2", res.Results[0].Object.UID)
	assert.Equal(t, "Marble Bust of Athena", res.Results[0].Object.Title)
	for i := 1; i < len(res.Results); i++ {
		assert.LessOrEqual(t, res.Results[i].Score, res.Results[i-1].Score)
	}
}

// TestWireApp_RestartKeepsEmbeddings reopens the same data directory and
// verifies the index survives the restart.
func TestWireApp_RestartKeepsEmbeddings(t *testing.T) {
	cfg := testAppConfig(t)

	app, err := WireApp(cfg)
	require.NoError(t, err)

	csv := "ObjectID,Title\n1,Gilded Mirror\n2,Porcelain Vase\n"
	uploadBody, err := json.Marshal(map[string]string{"filename": "decorative.csv", "content": csv})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", bytes.NewReader(uploadBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/index/batches", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, app.Close())

	// Same data dir, fresh process state.
	app2, err := WireApp(cfg)
	require.NoError(t, err)
	defer func() { _ = app2.Close() }()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/index/status", nil)
	w = httptest.NewRecorder()
	app2.Server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status struct {
		Total     int `json:"total"`
		Embedded  int `json:"embedded"`
		Remaining int `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 2, status.Embedded)
	assert.Equal(t, 0, status.Remaining)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=Porcelain+Vase", nil)
	w = httptest.NewRecorder()
	app2.Server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Porcelain Vase")
}
