package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/rag"
	"book-rag-be/pkg/store"
)

// Retriever turns a validated query into ranked evidence chunks: embed with
// role=query, build the filter predicate, run the vector search, map results.
// In scoped-to-text mode both external calls are bypassed and a single
// synthetic chunk is returned.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	index             contract.ChunkIndexRepository
	retryPolicy       rag.RetryPolicy
	embedTimeout      time.Duration
	searchTimeout     time.Duration
	logger            logger.ILogger
}

// Timing carries the two retrieval sub-stage durations for the response.
type Timing struct {
	EmbeddingMs float64
	SearchMs    float64
}

// ScopedChunkId is the id given to the synthetic chunk of scoped-to-text mode.
const ScopedChunkId = "scoped-text"

type Config struct {
	RetryPolicy   rag.RetryPolicy
	EmbedTimeout  time.Duration
	SearchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RetryPolicy:   rag.DefaultRetryPolicy(),
		EmbedTimeout:  2 * time.Second,
		SearchTimeout: 1 * time.Second,
	}
}

func NewRetriever(
	embeddingProvider embedding.EmbeddingProvider,
	index contract.ChunkIndexRepository,
	cfg Config,
	log logger.ILogger,
) *Retriever {
	return &Retriever{
		embeddingProvider: embeddingProvider,
		index:             index,
		retryPolicy:       cfg.RetryPolicy,
		embedTimeout:      cfg.EmbedTimeout,
		searchTimeout:     cfg.SearchTimeout,
		logger:            log,
	}
}

// Retrieve returns ranked evidence for the query. Zero chunks is a valid
// outcome, distinct from any error: callers decide whether it becomes a
// "no relevant content" answer.
func (r *Retriever) Retrieve(ctx context.Context, query *store.Query) ([]store.EvidenceChunk, Timing, error) {
	var timing Timing

	if err := ValidateQuery(query); err != nil {
		return nil, timing, err
	}

	if query.Mode == store.ModeScopedToText {
		return []store.EvidenceChunk{syntheticChunk(query.ScopedText)}, timing, nil
	}

	// Fail fast on bad filters, before any network call.
	specs, err := rag.BuildFilter(query.Filters)
	if err != nil {
		return nil, timing, err
	}

	embedStart := time.Now()
	var vector []float32
	err = r.retryPolicy.Do(ctx, func() error {
		embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
		var genErr error
		vector, genErr = r.embeddingProvider.Generate(embedCtx, query.Text, embedding.RoleQuery)
		return genErr
	})
	timing.EmbeddingMs = float64(time.Since(embedStart).Microseconds()) / 1000.0
	if err != nil {
		return nil, timing, fmt.Errorf("query embedding failed: %w", err)
	}

	searchStart := time.Now()
	var scored []*contract.ScoredChunk
	err = r.retryPolicy.Do(ctx, func() error {
		searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()
		var searchErr error
		scored, searchErr = r.index.Search(searchCtx, vector, query.TopK, specs...)
		return searchErr
	})
	timing.SearchMs = float64(time.Since(searchStart).Microseconds()) / 1000.0
	if err != nil {
		return nil, timing, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]store.EvidenceChunk, len(scored))
	for i, s := range scored {
		chunks[i] = mapChunk(s)
	}

	r.logger.Debug("retriever", "vector search completed", map[string]interface{}{
		"hits":  len(chunks),
		"top_k": query.TopK,
	})

	return chunks, timing, nil
}

// ValidateQuery enforces the query constraints shared by every entry point.
func ValidateQuery(query *store.Query) error {
	if query == nil {
		return &rag.InvalidInputError{Reason: "query is nil"}
	}
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return &rag.InvalidInputError{Reason: "query text is empty"}
	}
	// Counted in runes so multibyte text gets the same limit as the
	// transport-level validator.
	if utf8.RuneCountInString(query.Text) > 2000 {
		return &rag.InvalidInputError{Reason: "query text exceeds 2000 characters"}
	}
	if query.TopK < 1 || query.TopK > 50 {
		return &rag.InvalidInputError{Reason: "top_k must be between 1 and 50"}
	}
	switch query.Mode {
	case store.ModeCorpusWide:
	case store.ModeScopedToText:
		if strings.TrimSpace(query.ScopedText) == "" {
			return &rag.InvalidInputError{Reason: "scoped_text is required in scoped-to-text mode"}
		}
	default:
		return &rag.InvalidInputError{Reason: fmt.Sprintf("unknown mode %q", query.Mode)}
	}
	return nil
}

func syntheticChunk(text string) store.EvidenceChunk {
	return store.EvidenceChunk{
		Id:               ScopedChunkId,
		Text:             text,
		SimilarityScore:  1.0,
		SourceURL:        nil,
		SectionPath:      []string{},
		SequencePosition: 0,
		RawMetadata:      map[string]interface{}{},
	}
}

func mapChunk(s *contract.ScoredChunk) store.EvidenceChunk {
	sourceURL := s.Chunk.SourceURL
	sectionPath := s.Chunk.SectionPath
	if sectionPath == nil {
		sectionPath = []string{}
	}
	metadata := s.Chunk.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return store.EvidenceChunk{
		Id:               s.Chunk.Id,
		Text:             s.Chunk.Document,
		SimilarityScore:  s.Similarity,
		SourceURL:        &sourceURL,
		SectionPath:      sectionPath,
		SequencePosition: s.Chunk.SequencePosition,
		RawMetadata:      metadata,
	}
}
