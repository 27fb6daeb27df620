// Package vector holds the embedding vector value type and its similarity score.
package vector

import "github.com/kailas-cloud/askctx/internal/domain"

// Vector is a fixed-length embedding. Vectors compared with each other must share one length.
// Components are stored as float32 even when a corpus file holds float64 values; scores are
// accumulated in float64, but sections whose float64 scores differ only past float32
// precision can tie and fall back to the key order.
type Vector []float32

// Dot returns the inner product of a and b, accumulated in float64.
// No normalization is applied; pre-normalized vectors make this equal to cosine similarity.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Dimensions returns the vector length.
func (v Vector) Dimensions() int { return len(v) }

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	c := make(Vector, len(v))
	copy(c, v)
	return c
}
