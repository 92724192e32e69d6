// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package secrets keeps credentials in the operating system keyring and
// resolves keyring references found in configuration values, so API keys
// never have to sit in plaintext config files.
package secrets

// Service is the keyring service name under which Curio stores secrets.
const Service = "curio"

// Store provides secret storage operations. Implementations may use OS
// keyrings, encrypted files, or other backends.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// Returns CodeSecretNotFound (via curioerr.HasCode) if the key does
	// not exist.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	// Returns CodeSecretNotFound (via curioerr.HasCode) if the key does
	// not exist.
	Delete(service, key string) error

	// List returns all key names stored under the given service.
	List(service string) ([]string, error)
}
