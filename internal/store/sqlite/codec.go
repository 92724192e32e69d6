// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package sqlite

import (
	"encoding/binary"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// encodeVector serialises an embedding to the little-endian float32 blob
// format used by sqlite-vec.
func encodeVector(v []float32) ([]byte, error) {
	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "serialising embedding: %w", err)
	}
	return blob, nil
}

// decodeVector deserialises a blob written by encodeVector.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure,
			"embedding blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
