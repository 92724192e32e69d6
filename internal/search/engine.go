// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package search

import (
	"container/heap"
	"context"
	"strings"

	"github.com/curio-dev/curio/internal/embedding"
	"github.com/curio-dev/curio/internal/store"
	"github.com/curio-dev/curio/internal/vecmath"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Result is one search hit: the cosine similarity and the matched object.
type Result struct {
	Score float32   `json:"score" doc:"Cosine similarity in [-1, 1]"`
	Ref   store.Ref `json:"object"`
}

// Engine ranks embedded objects against a query string.
type Engine struct {
	cache    *Manager
	embedder embedding.Embedder
}

// NewEngine creates a query engine over a cache manager. The embedder must
// be the same one used at indexing time or scores are meaningless.
func NewEngine(cache *Manager, emb embedding.Embedder) *Engine {
	return &Engine{cache: cache, embedder: emb}
}

// Search returns the k embedded objects in scope most similar to query,
// best first. Ties rank by insertion order, earliest first. A scope with
// nothing embedded yields an empty list, as does k <= 0; an empty or
// whitespace query is an error.
func (e *Engine) Search(ctx context.Context, query string, k int, scope store.Scope) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, curioerr.New(curioerr.CodeSearchQueryInvalid, "query must not be empty")
	}
	if k <= 0 {
		return []Result{}, nil
	}

	entry, err := e.cache.Get(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(entry.Vectors) == 0 {
		return []Result{}, nil
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeEmbedUpstreamFailure, "embedding query")
	}
	if len(vecs) != 1 {
		return nil, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure,
			"model returned %d vectors for one query", len(vecs))
	}

	qvec := vecs[0]
	if !vecmath.NormalizeL2InPlace(qvec) {
		return nil, curioerr.New(curioerr.CodeEmbedUpstreamFailure, "query embedding has zero norm")
	}
	if len(qvec) != len(entry.Vectors[0]) {
		return nil, curioerr.Errorf(curioerr.CodeEmbedDimensionMismatch,
			"query embedding width %d does not match stored width %d", len(qvec), len(entry.Vectors[0]))
	}

	return topK(qvec, entry, k), nil
}

// topK scores the query against every row and keeps the best k. Both sides
// are unit-norm, so the dot product is the cosine similarity.
func topK(query []float32, entry *Entry, k int) []Result {
	if k > len(entry.Vectors) {
		k = len(entry.Vectors)
	}

	h := make(hitHeap, 0, k)
	for i, vec := range entry.Vectors {
		score := vecmath.Dot(query, vec)
		// float32 rounding can push a dot of unit vectors outside [-1, 1].
		if score > 1 {
			score = 1
		} else if score < -1 {
			score = -1
		}

		if h.Len() < k {
			heap.Push(&h, hit{score: score, idx: i})
			continue
		}
		// Rows scan in insertion order, so on a tied score the earlier
		// incumbent keeps its seat.
		if score > h[0].score {
			h[0] = hit{score: score, idx: i}
			heap.Fix(&h, 0)
		}
	}

	out := make([]Result, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		top := heap.Pop(&h).(hit)
		out[i] = Result{Score: top.score, Ref: entry.Refs[top.idx]}
	}
	return out
}

type hit struct {
	score float32
	idx   int
}

// hitHeap is a min-heap keyed on score, so the weakest hit sits at the root
// where a better candidate can displace it. On equal scores the later
// insertion is the weaker hit.
type hitHeap []hit

func (h hitHeap) Len() int { return len(h) }

func (h hitHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].idx > h[j].idx
}

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
