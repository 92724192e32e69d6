// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package embedding

import (
	"sync"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Settings carries the provider-independent construction knobs. Providers
// ignore what they do not use; the hash provider, for example, reads only
// Dimensions.
type Settings struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// Factory builds an Embedder from settings.
type Factory func(s Settings) (Embedder, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// Register registers a factory for a named provider. Provider packages
// call this from init(). This function is goroutine-safe.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// New creates the named embedding provider.
func New(name string, s Settings) (Embedder, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, curioerr.Errorf(curioerr.CodeEmbedRequestInvalid, "unknown embedding provider: %q", name)
	}

	return factory(s)
}
