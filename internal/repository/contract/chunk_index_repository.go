package contract

import (
	"context"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/specification"
)

// ScoredChunk pairs an indexed chunk with its similarity to the query vector.
type ScoredChunk struct {
	Chunk      *entity.ChunkEmbedding
	Similarity float64
}

// ChunkIndexRepository is the vector index contract. Search returns at most
// limit results ordered by similarity descending, ties broken by ascending
// id; specifications are applied before the top-k cut.
type ChunkIndexRepository interface {
	Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error
	Search(ctx context.Context, vector []float32, limit int, specs ...specification.Specification) ([]*ScoredChunk, error)
	Count(ctx context.Context) (int64, error)
	DeleteBySource(ctx context.Context, sourceURL string) error
}
