// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package hash implements a deterministic local embedder using signed
// feature hashing. It needs no network or API key, which makes it the
// provider of choice for tests and air-gapped setups. Its vectors capture
// token overlap, not meaning.
package hash

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/curio-dev/curio/internal/embedding"
	"github.com/curio-dev/curio/internal/vecmath"
)

const defaultDimensions = 256

// Compile-time interface check.
var _ embedding.Embedder = (*Embedder)(nil)

// Embedder maps tokens into a fixed number of signed buckets.
type Embedder struct {
	dims int
}

// New creates a hash embedder with the given vector width. Non-positive
// widths fall back to 256.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &Embedder{dims: dims}
}

func (e *Embedder) Model() string { return "feature-hash" }

func (e *Embedder) Dimensions() int { return e.dims }

// Embed hashes each text independently. The same text always yields the
// same unit vector.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *Embedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)

	tokens := tokenize(text)
	if len(tokens) == 0 && text != "" {
		// Punctuation-only input still gets a stable non-zero vector.
		tokens = []string{text}
	}
	for _, tok := range tokens {
		bucket, sign := hashToken(tok)
		vec[bucket%uint64(e.dims)] += sign
	}

	vecmath.NormalizeL2InPlace(vec) // the zero vector stays zero
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// hashToken splits one FNV-1a sum into a bucket and a sign so token counts
// cancel rather than pile up on popular buckets.
func hashToken(tok string) (uint64, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum64()

	sign := float32(1)
	if sum&1 == 1 {
		sign = -1
	}
	return sum >> 1, sign
}
