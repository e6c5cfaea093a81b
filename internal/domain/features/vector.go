// Package features provides the sparse per-document feature vector.
package features

import (
	"math"
	"sort"
)

// Vector is a sparse float64 vector over vocabulary indices.
// Indices are strictly ascending; Values[i] belongs to Indices[i].
type Vector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (v Vector) Len() int {
	return len(v.Indices)
}

// IsZero reports whether every stored value is zero.
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Get returns the value at vocabulary index idx.
func (v Vector) Get(idx int) (float64, bool) {
	i := sort.SearchInts(v.Indices, idx)
	if i < len(v.Indices) && v.Indices[i] == idx {
		return v.Values[i], true
	}
	return 0, false
}

// Dot computes the dot product with a dense vector, summing in index order.
func (v Vector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		if idx < len(dense) {
			sum += v.Values[i] * dense[idx]
		}
	}
	return sum
}

// L2Norm returns the Euclidean norm.
func (v Vector) L2Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// L1Norm returns the sum of absolute values.
func (v Vector) L1Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += math.Abs(x)
	}
	return sum
}

// Scale divides every value by d in place.
func (v Vector) Scale(d float64) {
	for i := range v.Values {
		v.Values[i] /= d
	}
}

// Dense expands the vector to a slice of length dim.
func (v Vector) Dense(dim int) []float64 {
	dense := make([]float64, dim)
	for i, idx := range v.Indices {
		if idx < dim {
			dense[idx] = v.Values[i]
		}
	}
	return dense
}
