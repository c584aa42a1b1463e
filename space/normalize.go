package space

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// normEpsilon stabilizes the reciprocal norm so that zero vectors
// normalize to zero instead of dividing by zero.
const normEpsilon = 1e-30

// Normalize writes the L2-normalized form of src into dst.
// dst and src must have the same length; dst may alias src.
func Normalize(dst, src []float32) {
	norm := vek32.Dot(src, src)
	inv := float32(1 / (math.Sqrt(float64(norm)) + normEpsilon))

	for i, v := range src {
		dst[i] = v * inv
	}
}

// NormalizeInPlace L2-normalizes v in place.
func NormalizeInPlace(v []float32) {
	Normalize(v, v)
}
