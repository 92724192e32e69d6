// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := curioerr.New(
		curioerr.CodeConfigValidateInvalidValue,
		"invalid embedding configuration",
		curioerr.FieldDatasetID("ds-123"),
		curioerr.Field("provider", "openai"),
	)

	require.Error(t, err)
	assert.Equal(t, curioerr.CodeConfigValidateInvalidValue, curioerr.CodeOf(err))
	assert.True(t, curioerr.HasCode(err, curioerr.CodeConfigValidateInvalidValue))

	fields := curioerr.FieldsOf(err)
	assert.Equal(t, "ds-123", fields["dataset_id"])
	assert.Equal(t, "openai", fields["provider"])
}

func TestNewWithNoFields(t *testing.T) {
	err := curioerr.New(curioerr.CodeStoreDatabaseFailure, "connection lost")
	require.Error(t, err)
	assert.Equal(t, curioerr.CodeStoreDatabaseFailure, curioerr.CodeOf(err))
	assert.Contains(t, err.Error(), "connection lost")
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := curioerr.Errorf(curioerr.CodeEmbedUpstreamFailure, "embedding %d texts with %s", 42, "text-embedding-3-small")
	require.Error(t, err)
	assert.Equal(t, curioerr.CodeEmbedUpstreamFailure, curioerr.CodeOf(err))
	assert.Contains(t, err.Error(), "embedding 42 texts with text-embedding-3-small")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, curioerr.CodeStoreDatabaseFailure, curioerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := curioerr.Wrap(
		root,
		curioerr.CodeStoreDatasetNotFound,
		"loading dataset",
		curioerr.FieldDatasetID("ds-42"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, curioerr.CodeStoreDatasetNotFound, curioerr.CodeOf(err))
	assert.True(t, curioerr.IsNotFound(err))
	assert.Equal(t, "ds-42", curioerr.FieldsOf(err)["dataset_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, curioerr.Wrap(nil, curioerr.CodeServerInternalFailure, "ignored"))
}

func TestWrapfNilReturnsNil(t *testing.T) {
	assert.NoError(t, curioerr.Wrapf(nil, curioerr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestWrapfFormatsAndPreservesChain(t *testing.T) {
	root := stderrors.New("timeout")
	err := curioerr.Wrapf(root, curioerr.CodeEmbedUpstreamFailure, "calling %s model %s", "google", "text-embedding-004")

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, curioerr.CodeEmbedUpstreamFailure, curioerr.CodeOf(err))
	assert.Contains(t, err.Error(), "calling google model text-embedding-004")
}

// ---------------------------------------------------------------------------
// With
// ---------------------------------------------------------------------------

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := curioerr.New(curioerr.CodeSearchQueryInvalid, "empty query")
	withCtx := curioerr.With(base, curioerr.FieldDatasetID("ds-1"))

	require.Error(t, withCtx)
	assert.Equal(t, curioerr.CodeSearchQueryInvalid, curioerr.CodeOf(withCtx))
	assert.Equal(t, "ds-1", curioerr.FieldsOf(withCtx)["dataset_id"])
}

func TestWithNilReturnsNil(t *testing.T) {
	assert.NoError(t, curioerr.With(nil, curioerr.FieldProvider("x")))
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	plain := stderrors.New("something broke")
	enriched := curioerr.With(plain, curioerr.FieldObjectUID("ds-1:99"))

	require.Error(t, enriched)
	assert.Equal(t, curioerr.CodeServerInternalFailure, curioerr.CodeOf(enriched))
	assert.Equal(t, "ds-1:99", curioerr.FieldsOf(enriched)["object_uid"])
}

// ---------------------------------------------------------------------------
// HasCode / CodeOf
// ---------------------------------------------------------------------------

func TestHasCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code curioerr.Code
		want bool
	}{
		{
			name: "matching code",
			err:  curioerr.New(curioerr.CodeStoreDatasetNotFound, "gone"),
			code: curioerr.CodeStoreDatasetNotFound,
			want: true,
		},
		{
			name: "non-matching code",
			err:  curioerr.New(curioerr.CodeStoreDatasetNotFound, "gone"),
			code: curioerr.CodeStoreDatabaseFailure,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: curioerr.CodeStoreDatasetNotFound,
			want: false,
		},
		{
			name: "plain stdlib error has no code",
			err:  stderrors.New("plain"),
			code: curioerr.CodeServerInternalFailure,
			want: false,
		},
		{
			name: "wrapped coded error returns innermost code",
			err: curioerr.Wrap(
				curioerr.New(curioerr.CodeStoreDatabaseFailure, "inner"),
				curioerr.CodeServerInternalFailure, "outer",
			),
			code: curioerr.CodeStoreDatabaseFailure,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, curioerr.HasCode(tt.err, tt.code))
		})
	}
}

func TestCodeOfNil(t *testing.T) {
	assert.Equal(t, curioerr.Code(""), curioerr.CodeOf(nil))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, curioerr.Code(""), curioerr.CodeOf(stderrors.New("plain")))
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := curioerr.New(curioerr.CodeStoreDatabaseFailure, "db")
	outer := curioerr.Wrap(inner, curioerr.CodeServerInternalFailure, "handler")
	// oops.AsOops walks to the deepest oops error, so CodeOf returns the innermost code.
	assert.Equal(t, curioerr.CodeStoreDatabaseFailure, curioerr.CodeOf(outer))
}

// ---------------------------------------------------------------------------
// errors.Is unwrapping
// ---------------------------------------------------------------------------

func TestErrorIsWithWrappedChain(t *testing.T) {
	sentinel := stderrors.New("root cause")
	mid := fmt.Errorf("mid: %w", sentinel)
	outer := curioerr.Wrap(mid, curioerr.CodeServerInternalFailure, "handler")

	assert.ErrorIs(t, outer, sentinel)
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   curioerr.Code
		status int
		check  func(error) bool
	}{
		{name: "dataset not found", code: curioerr.CodeStoreDatasetNotFound, status: 404, check: curioerr.IsNotFound},
		{name: "object not found", code: curioerr.CodeStoreObjectNotFound, status: 404, check: curioerr.IsNotFound},
		{name: "server entity not found", code: curioerr.CodeServerEntityNotFound, status: 404, check: curioerr.IsNotFound},
		{name: "invalid query", code: curioerr.CodeSearchQueryInvalid, status: 400, check: curioerr.IsInvalidInput},
		{name: "invalid config value", code: curioerr.CodeConfigValidateInvalidValue, status: 400, check: curioerr.IsInvalidInput},
		{name: "invalid csv format", code: curioerr.CodeIngestParseInvalidFormat, status: 400, check: curioerr.IsInvalidInput},
		{name: "store invalid input", code: curioerr.CodeStoreInvalidInput, status: 400, check: curioerr.IsInvalidInput},
		{name: "embed request invalid", code: curioerr.CodeEmbedRequestInvalid, status: 400, check: curioerr.IsInvalidInput},
		{name: "embed upstream failure", code: curioerr.CodeEmbedUpstreamFailure, status: 502, check: curioerr.IsUpstreamFailure},
		{name: "cache build failure", code: curioerr.CodeSearchCacheBuildFailure, status: 500, check: func(err error) bool { return !curioerr.IsInvalidInput(err) }},
		{name: "internal", code: curioerr.CodeServerInternalFailure, status: 500, check: func(err error) bool { return !curioerr.IsNotFound(err) }},
		{name: "dimension mismatch", code: curioerr.CodeEmbedDimensionMismatch, status: 500, check: func(err error) bool { return !curioerr.IsUpstreamFailure(err) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := curioerr.New(tt.code, "boom")
			assert.Equal(t, tt.status, curioerr.HTTPStatus(err))
			assert.True(t, tt.check(err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, curioerr.IsRetryable(curioerr.New(curioerr.CodeEmbedUpstreamFailure, "model down")))
	assert.True(t, curioerr.IsRetryable(curioerr.New(curioerr.CodeStoreDatabaseFailure, "locked")))
	assert.False(t, curioerr.IsRetryable(curioerr.New(curioerr.CodeSearchQueryInvalid, "empty")))
	assert.False(t, curioerr.IsRetryable(nil))
}

func TestClassificationOnNilError(t *testing.T) {
	assert.False(t, curioerr.IsNotFound(nil))
	assert.False(t, curioerr.IsInvalidInput(nil))
	assert.False(t, curioerr.IsUpstreamFailure(nil))
}

func TestClassificationOnPlainError(t *testing.T) {
	err := stderrors.New("plain")
	assert.False(t, curioerr.IsNotFound(err))
	assert.False(t, curioerr.IsInvalidInput(err))
	assert.False(t, curioerr.IsUpstreamFailure(err))
}

// ---------------------------------------------------------------------------
// HTTPStatus edge cases
// ---------------------------------------------------------------------------

func TestHTTPStatusNilReturnsInternalServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, curioerr.HTTPStatus(nil))
}

func TestHTTPStatusPlainErrorReturnsInternalServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, curioerr.HTTPStatus(stderrors.New("oops")))
}

// ---------------------------------------------------------------------------
// Join
// ---------------------------------------------------------------------------

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	joined := curioerr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
	assert.Equal(t, curioerr.CodeServerInternalFailure, curioerr.CodeOf(joined))
}
