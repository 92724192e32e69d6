// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package openai implements the embedding contract on the OpenAI
// embeddings API.
package openai

import (
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/curio-dev/curio/internal/embedding"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Compile-time interface check.
var _ embedding.Embedder = (*Embedder)(nil)

// Config holds OpenAI embedder configuration.
type Config struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int
}

// Embedder implements embedding.Embedder using the OpenAI embeddings API.
type Embedder struct {
	client openaisdk.Client
	config Config
}

// New creates a new OpenAI embedder. Returns an error if the API key is missing.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, curioerr.New(curioerr.CodeEmbedRequestInvalid, "openai: missing api_key in config", curioerr.FieldProvider("openai"))
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Embedder{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (e *Embedder) Model() string { return e.config.Model }

func (e *Embedder) Dimensions() int { return e.config.Dimensions }

// Embed sends the whole batch to the embeddings endpoint in one request and
// returns vectors in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openaisdk.EmbeddingModel(e.config.Model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	// Only the text-embedding-3 family accepts a dimensions override.
	if strings.HasPrefix(e.config.Model, "text-embedding-3") {
		params.Dimensions = param.NewOpt(int64(e.config.Dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeEmbedUpstreamFailure, "openai: embedding %d texts", len(texts))
	}
	if len(resp.Data) != len(texts) {
		return nil, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure,
			"openai: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// The API reports an index per datum; order by it rather than trusting
	// response order.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure, "openai: embedding index %d out of range", idx)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vectors[idx] = vec
	}
	return vectors, nil
}
