// Package vectorstore provides vector-backed similarity oracles for graph
// construction: a flat in-memory slab and a read-only memory-mapped file
// store. Both hand out slices aliasing internal memory; callers must not
// mutate them.
package vectorstore

import (
	"errors"

	"github.com/hupe1980/proxigraph/similarity"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store
	// dimension.
	ErrWrongDimension = errors.New("vectorstore: wrong vector dimension")

	// ErrInvalidDimension is returned for a non-positive configured dimension.
	ErrInvalidDimension = errors.New("vectorstore: dimension must be positive")

	// ErrInvalidNumPoints is returned for a negative point count.
	ErrInvalidNumPoints = errors.New("vectorstore: number of points must be non-negative")
)

// VectorSource is the read surface a Scorer needs.
type VectorSource interface {
	Vector(id uint32) []float32
	Dimension() int
	Len() int
}

// Flat is a preallocated dense vector slab indexed by point id.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat allocates a store for numPoints vectors of the given dimension.
func NewFlat(numPoints, dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	if numPoints < 0 {
		return nil, ErrInvalidNumPoints
	}
	return &Flat{
		dim:  dim,
		data: make([]float32, numPoints*dim),
	}, nil
}

// SetVector copies v into the slot for id. Vectors must be fully loaded
// before a build pass references their ids.
func (f *Flat) SetVector(id uint32, v []float32) error {
	if len(v) != f.dim {
		return ErrWrongDimension
	}
	copy(f.data[int(id)*f.dim:], v)
	return nil
}

// Vector returns the stored vector for id, aliasing internal memory.
func (f *Flat) Vector(id uint32) []float32 {
	off := int(id) * f.dim
	return f.data[off : off+f.dim]
}

// Dimension returns the vector dimensionality.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of vector slots.
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Scorer adapts a VectorSource plus a similarity function into the pairwise
// oracle the build kernel consumes.
type Scorer struct {
	src VectorSource
	fn  similarity.Func
}

// NewScorer builds a Scorer around src and fn.
func NewScorer(src VectorSource, fn similarity.Func) *Scorer {
	return &Scorer{src: src, fn: fn}
}

// Score returns the similarity of the vectors behind a and b.
func (s *Scorer) Score(a, b uint32) float32 {
	return s.fn(s.src.Vector(a), s.src.Vector(b))
}
