// Package vector provides the vector math and encodings shared by the
// link store drivers.
package vector

import (
	"fmt"
	"math"
)

// CosineSimilarity computes the cosine similarity between a and b.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", ErrZeroMagnitude)
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroMagnitude
	}

	return dot / math.Sqrt(na2*nb2), nil
}

// CosineDistance returns 1 - cosine similarity, in [0, 2].
// Identical directions yield 0.
func CosineDistance(a, b []float32) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}

	// clamp rounding noise so identical vectors report exactly 0
	d := 1 - sim
	switch {
	case d < 0:
		d = 0
	case d > 2:
		d = 2
	}
	return d, nil
}
