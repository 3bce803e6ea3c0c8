// Package similarity provides similarity functions over float32 vectors.
// All functions score in similarity direction: a larger result means a closer
// pair. Length equality is the caller's responsibility; no bounds are checked
// beyond what slice indexing enforces.
package similarity

import "math"

// Func scores a pair of vectors. Higher is more similar.
type Func func(a, b []float32) float32

// Dot returns the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// NegSquaredL2 returns the negated squared Euclidean distance, so that closer
// vectors score higher.
func NegSquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return -sum
}

// Cosine returns the cosine similarity of a and b. A zero vector scores zero
// against everything.
func Cosine(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}

// NormalizeL2InPlace L2-normalizes v in place. Returns false if v has zero
// norm and was left untouched.
func NormalizeL2InPlace(v []float32) bool {
	var norm2 float32
	for _, x := range v {
		norm2 += x * x
	}
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}
