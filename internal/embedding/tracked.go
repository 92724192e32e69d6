// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package embedding

import (
	"context"

	"github.com/curio-dev/curio/pkg/health"
)

// WithTracking wraps an embedder so every call feeds the health tracker.
// Failures start the cooldown window, successes clear it. A nil tracker
// returns the embedder unwrapped.
func WithTracking(e Embedder, t *health.Tracker) Embedder {
	if t == nil {
		return e
	}
	return &trackedEmbedder{inner: e, tracker: t}
}

type trackedEmbedder struct {
	inner   Embedder
	tracker *health.Tracker
}

func (te *trackedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := te.inner.Embed(ctx, texts)
	if err != nil {
		te.tracker.RecordFailure()
		return nil, err
	}
	te.tracker.RecordSuccess()
	return vecs, nil
}

func (te *trackedEmbedder) Dimensions() int { return te.inner.Dimensions() }

func (te *trackedEmbedder) Model() string { return te.inner.Model() }
