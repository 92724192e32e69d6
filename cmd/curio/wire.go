// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/curio-dev/curio/internal/config"
	"github.com/curio-dev/curio/internal/embedding"
	_ "github.com/curio-dev/curio/internal/embedding/google" // register google provider
	_ "github.com/curio-dev/curio/internal/embedding/hash"   // register hash provider
	_ "github.com/curio-dev/curio/internal/embedding/openai" // register openai provider
	"github.com/curio-dev/curio/internal/index"
	"github.com/curio-dev/curio/internal/ingest"
	"github.com/curio-dev/curio/internal/search"
	"github.com/curio-dev/curio/internal/server"
	"github.com/curio-dev/curio/internal/store"
	_ "github.com/curio-dev/curio/internal/store/sqlite" // register sqlite backend
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/curio-dev/curio/pkg/health"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server    *server.Server
	Store     store.CatalogStore
	Embedder  embedding.Embedder
	Processor *index.Processor
	Engine    *search.Engine
	Ingester  *ingest.Ingester
}

// WireApp creates all subsystems and wires them together. The store,
// processor, search engine, and ingester all share the catalog store;
// the processor and engine share the embedding provider so stored and
// query vectors come from the same model.
func WireApp(cfg *config.Config) (*App, error) {
	dataDir := cfg.Storage.DataDir

	// Ensure the data directory exists.
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	// 1. Catalog store (datasets, objects, embeddings).
	st, err := store.NewCatalogStore(&store.StorageConfig{Backend: cfg.Storage.Backend}, dataDir)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "creating catalog store: %w", err)
	}

	// 2. Embedding provider, wrapped so upstream failures show on /health.
	emb, err := embedding.New(cfg.Embedding.Provider, embedding.Settings{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		_ = st.Close()
		return nil, curioerr.Wrapf(err, curioerr.CodeCLISetupFailure, "creating embedding provider: %s", cfg.Embedding.Provider)
	}
	tracker := health.NewTracker(health.DefaultCooldown)
	emb = embedding.WithTracking(emb, tracker)
	slog.Info("embedding provider ready", "provider", cfg.Embedding.Provider, "model", emb.Model(), "dimensions", emb.Dimensions())

	// 3. Batch processor.
	proc := index.NewProcessor(st, emb, cfg.Index.BatchSize)

	// 4. Search cache and query engine.
	cache := search.NewManager(st)
	engine := search.NewEngine(cache, emb)

	// 5. Ingester.
	ing := ingest.NewIngester(st)

	// 6. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:     cfg.Server.Listen,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		},
		SearchDefaultK: cfg.Search.DefaultK,
		SearchMaxK:     cfg.Search.MaxK,
	})
	if err != nil {
		_ = st.Close()
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "creating server: %w", err)
	}

	if err := srv.RegisterServices(&server.Services{
		Ingester: ing,
		Catalog:  st,
		Indexer:  proc,
		Searcher: engine,
		Embedding: &server.EmbeddingStatus{
			Provider:   cfg.Embedding.Provider,
			Model:      emb.Model(),
			Dimensions: emb.Dimensions(),
			Tracker:    tracker,
		},
	}); err != nil {
		_ = st.Close()
		return nil, curioerr.Errorf(curioerr.CodeCLISetupFailure, "registering services: %w", err)
	}

	return &App{
		Server:    srv,
		Store:     st,
		Embedder:  emb,
		Processor: proc,
		Engine:    engine,
		Ingester:  ing,
	}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
