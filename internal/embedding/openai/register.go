// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package openai

import "github.com/curio-dev/curio/internal/embedding"

func init() {
	embedding.Register("openai", func(s embedding.Settings) (embedding.Embedder, error) {
		return New(Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	})
}
