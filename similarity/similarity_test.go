package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 11, Dot([]float32{1, 2, 3}, []float32{3, 1, 2}), 1e-6)
	assert.InDelta(t, 0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestNegSquaredL2(t *testing.T) {
	assert.InDelta(t, 0, NegSquaredL2([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, -25, NegSquaredL2([]float32{0, 0}, []float32{3, 4}), 1e-6)

	// Closer pairs must score higher.
	a := []float32{0, 0}
	near := []float32{1, 0}
	far := []float32{5, 0}
	assert.Greater(t, NegSquaredL2(a, near), NegSquaredL2(a, far))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1, Cosine([]float32{2, 0}, []float32{7, 0}), 1e-6)
	assert.InDelta(t, 0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-6)
	assert.InDelta(t, -1, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-6)
	assert.InDelta(t, 0, Cosine([]float32{0, 0}, []float32{1, 2}), 1e-6)
}

func TestNormalizeL2InPlace(t *testing.T) {
	v := []float32{3, 4}
	assert.True(t, NormalizeL2InPlace(v))
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1, Dot(v, v), 1e-6)

	zero := []float32{0, 0}
	assert.False(t, NormalizeL2InPlace(zero))
	assert.Equal(t, []float32{0, 0}, zero)
}
