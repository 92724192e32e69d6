// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package google

import "github.com/curio-dev/curio/internal/embedding"

func init() {
	embedding.Register("google", func(s embedding.Settings) (embedding.Embedder, error) {
		return New(Config{
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	})
}
