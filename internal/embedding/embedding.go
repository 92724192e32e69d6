// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package embedding defines the text embedding contract implemented by
// model providers.
package embedding

import "context"

// Embedder turns a batch of texts into fixed-width vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order. The whole
	// batch goes to the model in a single call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the expected width of the vectors Embed returns.
	Dimensions() int

	// Model names the underlying embedding model.
	Model() string
}
