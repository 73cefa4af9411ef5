// Package vecmath holds the small float32 vector helpers shared by the
// index, the feedback learner and the evaluation harness. Accumulation is
// done in float64 to keep cosine stable on long vectors.
package vecmath

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when either is
// empty, zero-length-mismatched or zero-norm.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize returns v scaled to unit length. Zero vectors come back
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// Centroid returns the element-wise mean of the vectors. Returns nil for
// an empty input; mismatched lengths are skipped.
func Centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}
	if n == 0 {
		return nil
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(n))
	}
	return out
}

// Step moves v a bounded step of size alpha toward target:
// v' = v + alpha*(target - v). The caller normalizes afterwards; the
// bounded form keeps the vector from drifting without limit across
// rounds. A negative alpha steps away from the target.
func Step(v, target []float32, alpha float64) []float32 {
	if len(v) != len(target) {
		return v
	}
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] + float32(alpha*(float64(target[i])-float64(v[i])))
	}
	return out
}

// Blend returns the re-normalized weighted average w*a + (1-w)*b.
func Blend(a, b []float32, w float64) []float32 {
	if len(a) != len(b) {
		return a
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = float32(w*float64(a[i]) + (1-w)*float64(b[i]))
	}
	return Normalize(out)
}
