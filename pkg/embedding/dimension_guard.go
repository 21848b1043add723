package embedding

import (
	"context"

	"book-rag-be/pkg/rag"
)

// DimensionGuard wraps a provider and rejects any vector whose dimension
// differs from the configured one. A mismatch means the service is pointed
// at the wrong model or collection, so it is fatal and never coerced.
type DimensionGuard struct {
	inner     EmbeddingProvider
	dimension int
}

var _ EmbeddingProvider = (*DimensionGuard)(nil)

func NewDimensionGuard(inner EmbeddingProvider, dimension int) *DimensionGuard {
	return &DimensionGuard{inner: inner, dimension: dimension}
}

func (g *DimensionGuard) Generate(ctx context.Context, text string, role string) ([]float32, error) {
	vec, err := g.inner.Generate(ctx, text, role)
	if err != nil {
		return nil, err
	}
	if g.dimension > 0 && len(vec) != g.dimension {
		return nil, &rag.DimensionMismatchError{Want: g.dimension, Got: len(vec)}
	}
	return vec, nil
}
