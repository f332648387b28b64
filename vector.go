package docdex

import "math"

// VectorNorm returns the Euclidean norm of an embedding vector.
func VectorNorm(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine of the angle between two vectors with
// precomputed norms. Zero-norm vectors yield zero similarity.
func CosineSimilarity(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA <= 0 || normB <= 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
