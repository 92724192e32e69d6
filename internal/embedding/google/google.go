// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package google implements the embedding contract on the Gemini API.
package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/curio-dev/curio/internal/embedding"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Compile-time interface check.
var _ embedding.Embedder = (*Embedder)(nil)

// Config holds Gemini embedder configuration.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
}

// Embedder implements embedding.Embedder using the Gemini API.
type Embedder struct {
	client *genai.Client
	config Config
}

// New creates a new Gemini embedder. Returns an error if the API key is missing.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, curioerr.New(curioerr.CodeEmbedRequestInvalid, "google: missing api_key in config", curioerr.FieldProvider("google"))
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeEmbedUpstreamFailure, "google: creating client")
	}

	return &Embedder{client: client, config: cfg}, nil
}

func (e *Embedder) Model() string { return e.config.Model }

func (e *Embedder) Dimensions() int { return e.config.Dimensions }

// Embed sends the whole batch to the Gemini embedContent endpoint in one
// request and returns vectors in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.config.Model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(e.config.Dimensions)),
	})
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeEmbedUpstreamFailure, "google: embedding %d texts", len(texts))
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure,
			"google: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure, "google: missing embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
