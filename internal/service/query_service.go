package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/memory"
	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/store"
)

type IQueryService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type queryService struct {
	pipeline    *executor.Pipeline
	answerCache *memory.AnswerCache
	defaultTopK int
	logger      logger.ILogger
}

func NewQueryService(
	pipeline *executor.Pipeline,
	answerCache *memory.AnswerCache,
	defaultTopK int,
	log logger.ILogger,
) IQueryService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &queryService{
		pipeline:    pipeline,
		answerCache: answerCache,
		defaultTopK: defaultTopK,
		logger:      log,
	}
}

func (s *queryService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	query := s.toQuery(req)

	// The generator runs near-deterministic, so identical requests within the
	// cache TTL reuse the previous answer and sources. The query_id is minted
	// per request; timings stay from the original run.
	cacheKey := requestHash(query)
	if cached, found := s.answerCache.Get(cacheKey); found {
		res := toChatResponse(cached)
		res.QueryId = uuid.New().String()
		s.logger.Debug("query_service", "answer cache hit", map[string]interface{}{
			"query_id":          res.QueryId,
			"original_query_id": cached.QueryId,
		})
		return res, nil
	}

	result, err := s.pipeline.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	s.answerCache.Set(cacheKey, result)

	return toChatResponse(result), nil
}

func (s *queryService) toQuery(req *dto.ChatRequest) *store.Query {
	topK := req.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}
	mode := req.Mode
	if mode == "" {
		mode = store.ModeCorpusWide
	}
	scopedText := ""
	if req.ScopedText != nil {
		scopedText = *req.ScopedText
	}
	includeSources := true
	if req.IncludeSources != nil {
		includeSources = *req.IncludeSources
	}

	filters := make([]store.FilterClause, len(req.Filters))
	for i, f := range req.Filters {
		filters[i] = store.FilterClause{
			Field:    f.Field,
			Operator: f.Operator,
			Value:    f.Value,
		}
	}

	return &store.Query{
		Text:           req.Query,
		TopK:           topK,
		Filters:        filters,
		Mode:           mode,
		ScopedText:     scopedText,
		IncludeSources: includeSources,
	}
}

// requestHash produces the cache key from the canonical JSON of the query.
func requestHash(query *store.Query) string {
	data, err := json.Marshal(query)
	if err != nil {
		return fmt.Sprintf("raw:%s:%d:%s", query.Text, query.TopK, query.Mode)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func toChatResponse(result *store.QueryResult) *dto.ChatResponse {
	sources := make([]dto.SourceDTO, len(result.Sources))
	for i, c := range result.Sources {
		sources[i] = dto.SourceDTO{
			ChunkId:         c.Id,
			SourceURL:       c.SourceURL,
			SectionPath:     c.SectionPath,
			SimilarityScore: c.SimilarityScore,
		}
	}

	return &dto.ChatResponse{
		Answer:  result.Answer,
		Sources: sources,
		QueryId: result.QueryId,
		Timing: dto.TimingDTO{
			EmbeddingMs:  result.Timing.EmbeddingMs,
			SearchMs:     result.Timing.SearchMs,
			GenerationMs: result.Timing.GenerationMs,
			ValidationMs: result.Timing.ValidationMs,
			TotalMs:      result.Timing.TotalMs,
		},
	}
}
