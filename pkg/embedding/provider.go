package embedding

import "context"

// Embedding roles. Query and document embeddings may use different provider
// modes but must land in the same comparable vector space.
const (
	RoleQuery    = "search_query"
	RoleDocument = "search_document"
)

// EmbeddingProvider defines the interface for generating text embeddings.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, role string) ([]float32, error)
}
