// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package hash

import "github.com/curio-dev/curio/internal/embedding"

func init() {
	embedding.Register("hash", func(s embedding.Settings) (embedding.Embedder, error) {
		return New(s.Dimensions), nil
	})
}
