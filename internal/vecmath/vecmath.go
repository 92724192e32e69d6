// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package vecmath provides the small set of float32 vector operations the
// indexing and search paths share: dot products and L2 normalization.
// Every vector that reaches the store or a score computation is unit-norm,
// so cosine similarity reduces to Dot.
package vecmath

import (
	"math"
	"slices"
)

// Dot returns the dot product of a and b. The caller guarantees equal
// lengths; for unit-norm inputs the result is the cosine similarity and
// lies in [-1, 1] up to float rounding.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// NormalizeL2InPlace scales v to unit L2 norm. It returns false and leaves
// v untouched when the norm is zero or not finite, since such vectors
// carry no direction and must not enter the similarity space.
func NormalizeL2InPlace(v []float32) bool {
	norm := Norm(v)
	if norm == 0 || math.IsNaN(float64(norm)) || math.IsInf(float64(norm), 0) {
		return false
	}

	inv := 1 / norm
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a unit-norm copy of v, leaving the input intact.
func NormalizeL2Copy(v []float32) ([]float32, bool) {
	out := slices.Clone(v)
	ok := NormalizeL2InPlace(out)
	return out, ok
}

// IsUnitNorm reports whether v has L2 norm 1 within eps.
func IsUnitNorm(v []float32, eps float64) bool {
	return math.Abs(float64(Norm(v))-1) <= eps
}
