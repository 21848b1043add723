package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/specification"
)

// ChunkIndexRepository is a brute-force in-memory index used by tests and
// local development. It mirrors the pgvector implementation exactly: cosine
// similarity, specifications applied before the top-k cut, similarity DESC
// ordering with id ASC tie-break.
type ChunkIndexRepository struct {
	mu     sync.RWMutex
	chunks map[string]*entity.ChunkEmbedding
}

func NewChunkIndexRepository() *ChunkIndexRepository {
	return &ChunkIndexRepository{
		chunks: make(map[string]*entity.ChunkEmbedding),
	}
}

func (r *ChunkIndexRepository) Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range chunks {
		r.chunks[c.Id] = c
	}
	return nil
}

func (r *ChunkIndexRepository) Search(ctx context.Context, vector []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var scored []*contract.ScoredChunk
	for _, c := range r.chunks {
		if !matchesAll(c, specs) {
			continue
		}
		scored = append(scored, &contract.ScoredChunk{
			Chunk:      c,
			Similarity: cosineSimilarity(vector, c.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Chunk.Id < scored[j].Chunk.Id
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *ChunkIndexRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.chunks)), nil
}

func (r *ChunkIndexRepository) DeleteBySource(ctx context.Context, sourceURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.chunks {
		if c.SourceURL == sourceURL {
			delete(r.chunks, id)
		}
	}
	return nil
}

func matchesAll(c *entity.ChunkEmbedding, specs []specification.Specification) bool {
	for _, s := range specs {
		if !s.Matches(c) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ contract.ChunkIndexRepository = (*ChunkIndexRepository)(nil)
