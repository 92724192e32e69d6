// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package secrets

import (
	"strings"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/viper"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value names a keyring secret instead of
// carrying one inline.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI splits a keyring://service/key URI into its parts.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", curioerr.Errorf(curioerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", curioerr.Errorf(curioerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// Resolve returns the secret a keyring:// URI points at. Values without
// the keyring scheme pass through unchanged.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", curioerr.Wrapf(err, curioerr.CodeSecretResolveFailure,
			"resolving keyring URI %q", value)
	}
	return secret, nil
}

// ResolveViperSecrets rewrites every keyring:// string value in v with the
// secret it names. Run after the config file is read and before Unmarshal,
// so clients never see a keyring URI where a credential belongs.
//
// An unresolvable reference fails the whole load. Passing a keyring URI
// through as if it were the credential would only defer the failure to the
// first provider call, with a far less useful error.
func ResolveViperSecrets(v *viper.Viper, store Store) error {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringURI(val) {
			continue
		}

		resolved, err := Resolve(store, val)
		if err != nil {
			return curioerr.Wrapf(err, curioerr.CodeSecretResolveFailure,
				"config key %s references %s", key, val)
		}
		v.Set(key, resolved)
	}
	return nil
}
