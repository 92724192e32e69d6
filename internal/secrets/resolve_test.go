// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package secrets_test

import (
	"testing"

	"github.com/curio-dev/curio/internal/secrets"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKeyringURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid URI", "keyring://curio/embedding-api-key", true},
		{"valid URI with dashes", "keyring://my-svc/my-key", true},
		{"env var reference", "${OPENAI_API_KEY}", false},
		{"literal value", "sk-abc123", false},
		{"empty string", "", false},
		{"just scheme", "keyring://", true},
		{"other scheme", "vault://secret/key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secrets.IsKeyringURI(tt.value))
		})
	}
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://curio/api-key", "curio", "api-key", false},
		{"dashes", "keyring://my-service/my-key-name", "my-service", "my-key-name", false},
		{"slashes in key", "keyring://curio/path/to/key", "curio", "path/to/key", false},
		{"not a keyring URI", "vault://secret/key", "", "", true},
		{"missing key", "keyring://curio/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"missing both", "keyring://", "", "", true},
		{"no path", "keyring://curio", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, curioerr.HasCode(err, curioerr.CodeSecretInvalidInput))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantService, svc)
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store(secrets.Service, "test-key", "resolved-secret"))

	t.Run("resolves keyring URI", func(t *testing.T) {
		val, err := secrets.Resolve(ks, "keyring://curio/test-key")
		require.NoError(t, err)
		assert.Equal(t, "resolved-secret", val)
	})

	t.Run("passes through literals", func(t *testing.T) {
		val, err := secrets.Resolve(ks, "literal-value")
		require.NoError(t, err)
		assert.Equal(t, "literal-value", val)
	})

	t.Run("passes through env var references", func(t *testing.T) {
		val, err := secrets.Resolve(ks, "${ENV_VAR}")
		require.NoError(t, err)
		assert.Equal(t, "${ENV_VAR}", val)
	})

	t.Run("error on missing secret", func(t *testing.T) {
		_, err := secrets.Resolve(ks, "keyring://curio/nonexistent")
		require.Error(t, err)
		assert.True(t, curioerr.HasCode(err, curioerr.CodeSecretResolveFailure))
		assert.Contains(t, err.Error(), "resolving keyring URI")
	})

	t.Run("error on malformed URI", func(t *testing.T) {
		_, err := secrets.Resolve(ks, "keyring://bad")
		require.Error(t, err)
	})
}

func TestResolveViperSecrets(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store(secrets.Service, "embedding-api-key", "sk-oai-secret"))

	v := viper.New()
	v.Set("embedding.api_key", "keyring://curio/embedding-api-key")
	v.Set("server.listen", "127.0.0.1:8787") // non-keyring value
	v.Set("embedding.model", "text-embedding-3-small")

	require.NoError(t, secrets.ResolveViperSecrets(v, ks))

	assert.Equal(t, "sk-oai-secret", v.GetString("embedding.api_key"))
	assert.Equal(t, "127.0.0.1:8787", v.GetString("server.listen"))
	assert.Equal(t, "text-embedding-3-small", v.GetString("embedding.model"))
}

func TestResolveViperSecrets_MissingSecretFailsLoad(t *testing.T) {
	ks := secrets.NewKeyringStore()

	v := viper.New()
	v.Set("embedding.api_key", "keyring://curio/nonexistent-key")

	err := secrets.ResolveViperSecrets(v, ks)
	require.Error(t, err)
	assert.True(t, curioerr.HasCode(err, curioerr.CodeSecretResolveFailure))
	assert.Contains(t, err.Error(), "embedding.api_key")
	assert.Contains(t, err.Error(), "keyring://curio/nonexistent-key")
}
