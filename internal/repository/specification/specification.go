package specification

import (
	"book-rag-be/internal/entity"

	"gorm.io/gorm"
)

// Specification is a payload predicate usable against both index backends:
// Apply translates it to SQL for the pgvector store, Matches evaluates it
// in-process for the memory store. Both must agree, since filters are part
// of the search (applied before the top-k cut) and not a post-processing step.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
	Matches(chunk *entity.ChunkEmbedding) bool
}
