// Package embedding turns canonical entity text into dense vectors.
package embedding

import (
	"context"
	"math"
)

// Vector is a dense embedding.
type Vector []float32

// Embedder computes embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	// Model identifies the embedding space. Vectors from different models
	// must never be compared.
	Model() string
}

// CosineDistance returns 1 - cos(a, b). Mismatched or zero vectors are
// maximally distant.
func CosineDistance(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
