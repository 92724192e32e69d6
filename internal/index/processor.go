// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package index

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/curio-dev/curio/internal/embedding"
	"github.com/curio-dev/curio/internal/store"
	"github.com/curio-dev/curio/internal/vecmath"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// DefaultBatchSize bounds one model call when the caller does not pick a
// batch size.
const DefaultBatchSize = 128

// BatchResult reports one ProcessBatch invocation.
type BatchResult struct {
	EmbeddedThisBatch int  `json:"embedded_this_batch" doc:"Objects embedded by this call"`
	Remaining         int  `json:"remaining" doc:"Objects still pending after this call"`
	Total             int  `json:"total" doc:"Objects in the store"`
	Done              bool `json:"done" doc:"True once no objects remain pending"`
}

// Status reports overall indexing progress.
type Status struct {
	Total     int     `json:"total" doc:"Objects in the store"`
	Embedded  int     `json:"embedded" doc:"Objects with a stored embedding"`
	Remaining int     `json:"remaining" doc:"Objects still pending"`
	Percent   float64 `json:"percent" doc:"Embedded share of total, 0-100"`
}

// Processor embeds pending objects in bounded batches.
type Processor struct {
	store    store.ObjectStore
	embedder embedding.Embedder

	batchSize int

	// mu serialises batch runs: two concurrent calls would select the same
	// pending slice and send it to the model twice.
	mu sync.Mutex
}

// NewProcessor creates a batch processor. A non-positive defaultBatchSize
// falls back to DefaultBatchSize.
func NewProcessor(st store.ObjectStore, emb embedding.Embedder, defaultBatchSize int) *Processor {
	if defaultBatchSize <= 0 {
		defaultBatchSize = DefaultBatchSize
	}
	return &Processor{store: st, embedder: emb, batchSize: defaultBatchSize}
}

// ProcessBatch embeds up to batchSize pending objects, oldest first. The
// whole batch goes to the model in one call and every returned vector is
// persisted in one atomic write. Objects whose canonical text is empty are
// skipped and stay pending; vectors of the wrong width or zero norm leave
// their object pending too, with a log line naming it.
//
// A model or store failure aborts the batch with no writes, so the caller
// can simply retry. With nothing left to embed the call is a no-op that
// reports done.
func (p *Processor) ProcessBatch(ctx context.Context, batchSize int) (*BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if batchSize <= 0 {
		batchSize = p.batchSize
	}

	pending, err := p.store.PendingObjects(ctx, batchSize)
	if err != nil {
		return nil, err
	}

	embedded := 0
	if len(pending) > 0 {
		embedded, err = p.embedBatch(ctx, pending)
		if err != nil {
			return nil, err
		}
	}

	total, embeddedTotal, err := p.counts(ctx)
	if err != nil {
		return nil, err
	}
	remaining := total - embeddedTotal
	return &BatchResult{
		EmbeddedThisBatch: embedded,
		Remaining:         remaining,
		Total:             total,
		Done:              remaining == 0,
	}, nil
}

// JobStatus reports progress over the whole store. Embedded plus remaining
// always equals total.
func (p *Processor) JobStatus(ctx context.Context) (*Status, error) {
	total, embedded, err := p.counts(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{Total: total, Embedded: embedded, Remaining: total - embedded}
	if total > 0 {
		st.Percent = 100 * float64(embedded) / float64(total)
	}
	return st, nil
}

func (p *Processor) embedBatch(ctx context.Context, pending []*store.Object) (int, error) {
	texts := make([]string, 0, len(pending))
	objs := make([]*store.Object, 0, len(pending))
	for _, obj := range pending {
		text := strings.TrimSpace(CanonicalText(obj.Metadata))
		if text == "" {
			slog.Warn("object has no usable text, leaving pending", "object", obj.UID)
			continue
		}
		texts = append(texts, text)
		objs = append(objs, obj)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, curioerr.Wrapf(err, curioerr.CodeEmbedUpstreamFailure, "embedding batch of %d texts", len(texts))
	}
	if len(vectors) != len(texts) {
		return 0, curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure,
			"model returned %d vectors for %d texts", len(vectors), len(texts))
	}

	want := p.embedder.Dimensions()
	updates := make([]store.VectorUpdate, 0, len(vectors))
	for i, vec := range vectors {
		if len(vec) != want {
			slog.Warn("embedding dimension mismatch, leaving object pending",
				"object", objs[i].UID, "got", len(vec), "want", want)
			continue
		}
		if !vecmath.NormalizeL2InPlace(vec) {
			slog.Warn("embedding has zero norm, leaving object pending", "object", objs[i].UID)
			continue
		}
		updates = append(updates, store.VectorUpdate{UID: objs[i].UID, Vector: vec})
	}
	if len(updates) == 0 {
		return 0, nil
	}

	if err := p.store.MarkEmbedded(ctx, updates); err != nil {
		return 0, err
	}
	return len(updates), nil
}

func (p *Processor) counts(ctx context.Context) (total, embedded int, err error) {
	total, err = p.store.CountObjects(ctx, store.All)
	if err != nil {
		return 0, 0, err
	}
	embedded, err = p.store.CountEmbedded(ctx, store.All)
	if err != nil {
		return 0, 0, err
	}
	return total, embedded, nil
}
