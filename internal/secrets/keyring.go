// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/zalando/go-keyring"
)

// indexSuffix is appended to the service name to form the keyring entry
// holding the JSON list of stored key names. go-keyring cannot enumerate
// keys, so the index is maintained alongside every write and delete.
const indexSuffix = "::keys-index"

// KeyringStore implements Store on the OS keyring: Keychain on macOS,
// secret-service (D-Bus) on Linux, Credential Manager on Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkServiceKey("store", service, key); err != nil {
		return err
	}

	if err := keyring.Set(service, key, value); err != nil {
		return curioerr.Wrapf(err, curioerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	return s.updateIndex(service, func(keys []string) []string {
		if slices.Contains(keys, key) {
			return keys
		}
		return append(keys, key)
	})
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkServiceKey("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", curioerr.Errorf(curioerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", curioerr.Wrapf(err, curioerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkServiceKey("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return curioerr.Errorf(curioerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return curioerr.Wrapf(err, curioerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	return s.updateIndex(service, func(keys []string) []string {
		return slices.DeleteFunc(keys, func(k string) bool { return k == key })
	})
}

func (s *KeyringStore) List(service string) ([]string, error) {
	return s.readIndex(service)
}

// readIndex loads the JSON key index for a service from the keyring. A
// missing index means no keys have been stored yet.
func (s *KeyringStore) readIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, curioerr.Wrapf(err, curioerr.CodeSecretListFailure, "loading key index for service %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, curioerr.Wrapf(err, curioerr.CodeSecretListFailure, "decoding key index for service %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) writeIndex(service string, keys []string) error {
	entry := service + indexSuffix

	if len(keys) == 0 {
		// Drop the index entry entirely rather than storing an empty list.
		if err := keyring.Delete(service, entry); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("could not remove empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return curioerr.Wrapf(err, curioerr.CodeSecretListFailure, "encoding key index for service %s", service)
	}
	if err := keyring.Set(service, entry, string(data)); err != nil {
		return curioerr.Wrapf(err, curioerr.CodeSecretListFailure, "saving key index for service %s", service)
	}
	return nil
}

func (s *KeyringStore) updateIndex(service string, apply func([]string) []string) error {
	keys, err := s.readIndex(service)
	if err != nil {
		return err
	}
	return s.writeIndex(service, apply(keys))
}

func checkServiceKey(op, service, key string) error {
	if service == "" {
		return curioerr.Errorf(curioerr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return curioerr.Errorf(curioerr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	return nil
}
