package service

import (
	"context"
	"testing"
	"time"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/memory"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/rag"
	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/search"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fixedEmbedder struct{}

func (fixedEmbedder) Generate(ctx context.Context, text, role string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type echoLLM struct {
	reply string
	calls int
}

func (e *echoLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	e.calls++
	return e.reply, nil
}

func (e *echoLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return e.Chat(ctx, nil, options...)
}

func newTestQueryService(t *testing.T, provider llm.LLMProvider, cacheTTL time.Duration) IQueryService {
	t.Helper()

	index := memory.NewChunkIndexRepository()
	err := index.Upsert(context.Background(), []*entity.ChunkEmbedding{
		{
			Id:        "c1",
			Document:  "A neural network is a layered machine learning model.",
			Embedding: []float32{1, 0},
			SourceURL: "book-a",
		},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	retriever := search.NewRetriever(fixedEmbedder{}, index, search.Config{
		RetryPolicy:   rag.RetryPolicy{MaxAttempts: 1},
		EmbedTimeout:  time.Second,
		SearchTimeout: time.Second,
	}, nopLogger{})
	pipeline := executor.NewPipeline(
		retriever,
		ragcontext.NewAssembler(0),
		response.NewGenerator(provider, nopLogger{}),
		grounding.NewValidator(grounding.DefaultOverlapThreshold, grounding.DefaultMaxUnsupportedRatio),
		executor.DefaultConfig(),
		nopLogger{},
	)

	return NewQueryService(pipeline, memory.NewAnswerCache(cacheTTL), 5, nopLogger{})
}

func TestChatAppliesDefaults(t *testing.T) {
	provider := &echoLLM{reply: "A neural network is a layered machine learning model."}
	svc := newTestQueryService(t, provider, 0)

	// Only the query text is set; top_k, mode and include_sources default.
	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Query: "what is a neural network?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Answer == "" {
		t.Fatal("expected an answer")
	}
	if len(res.Sources) != 1 || res.Sources[0].ChunkId != "c1" {
		t.Fatalf("include_sources must default to true, got %+v", res.Sources)
	}
	if res.QueryId == "" {
		t.Fatal("query_id must be set")
	}
}

func TestChatAnswerCacheSkipsPipeline(t *testing.T) {
	provider := &echoLLM{reply: "A neural network is a layered machine learning model."}
	svc := newTestQueryService(t, provider, time.Minute)

	req := &dto.ChatRequest{Query: "what is a neural network?"}

	first, err := svc.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.calls != 1 {
		t.Fatalf("expected a single generation, got %d", provider.calls)
	}
	if first.Answer != second.Answer {
		t.Fatal("cached answer must match the original")
	}
	if first.QueryId == second.QueryId {
		t.Fatal("each request must receive its own query_id, cache hit or not")
	}
}

func TestChatDistinctRequestsMissCache(t *testing.T) {
	provider := &echoLLM{reply: "A neural network is a layered machine learning model."}
	svc := newTestQueryService(t, provider, time.Minute)

	if _, err := svc.Chat(context.Background(), &dto.ChatRequest{Query: "what is a neural network?"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Chat(context.Background(), &dto.ChatRequest{Query: "what is a neural network?", TopK: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.calls != 2 {
		t.Fatalf("different top_k must not share a cache entry, got %d calls", provider.calls)
	}
}
