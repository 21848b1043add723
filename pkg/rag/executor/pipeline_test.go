package executor

import (
	"context"
	"testing"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/specification"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/rag"
	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/search"
	"book-rag-be/pkg/store"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(ctx context.Context, text, role string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeIndex struct {
	results []*contract.ScoredChunk
}

func (f *fakeIndex) Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error { return nil }
func (f *fakeIndex) Count(ctx context.Context) (int64, error)                          { return 0, nil }
func (f *fakeIndex) DeleteBySource(ctx context.Context, sourceURL string) error        { return nil }
func (f *fakeIndex) Search(ctx context.Context, vector []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredChunk, error) {
	return f.results, nil
}

type fakeLLM struct {
	reply string
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, options...)
}

func newTestPipeline(index contract.ChunkIndexRepository, provider llm.LLMProvider) *Pipeline {
	retriever := search.NewRetriever(fakeEmbedder{}, index, search.Config{
		RetryPolicy:   rag.RetryPolicy{MaxAttempts: 1},
		EmbedTimeout:  time.Second,
		SearchTimeout: time.Second,
	}, nopLogger{})
	assembler := ragcontext.NewAssembler(0)
	generator := response.NewGenerator(provider, nopLogger{})
	validator := grounding.NewValidator(grounding.DefaultOverlapThreshold, grounding.DefaultMaxUnsupportedRatio)
	return NewPipeline(retriever, assembler, generator, validator, DefaultConfig(), nopLogger{})
}

func evidenceChunk(id, text string) *contract.ScoredChunk {
	return &contract.ScoredChunk{
		Chunk: &entity.ChunkEmbedding{
			Id:          id,
			Document:    text,
			SourceURL:   "https://example.com/book",
			SectionPath: []string{"Ch.1"},
		},
		Similarity: 0.9,
	}
}

func corpusQuery(text string) *store.Query {
	return &store.Query{
		Text:           text,
		TopK:           5,
		Mode:           store.ModeCorpusWide,
		IncludeSources: true,
	}
}

func TestExecuteEmptyRetrievalShortCircuits(t *testing.T) {
	provider := &fakeLLM{reply: "should never run"}
	p := newTestPipeline(&fakeIndex{results: nil}, provider)

	result, err := p.Execute(context.Background(), corpusQuery("asdkjalksjd"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != response.NoRelevantInformationMessage {
		t.Fatalf("expected fixed no-information answer, got %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected empty sources, got %d", len(result.Sources))
	}
	if provider.calls != 0 {
		t.Fatal("generation must be skipped on empty retrieval")
	}
	if result.Timing.GenerationMs != 0 || result.Timing.ValidationMs != 0 {
		t.Fatal("generation and validation timings must stay zero when skipped")
	}
	if result.Verdict != nil {
		t.Fatal("no verdict expected when validation was skipped")
	}
	if result.QueryId == "" {
		t.Fatal("query_id must always be set")
	}
}

func TestExecuteGroundedAnswerFlowsThrough(t *testing.T) {
	text := "A neural network is a layered machine learning model."
	provider := &fakeLLM{reply: text + " [chunk:c1]"}
	p := newTestPipeline(&fakeIndex{results: []*contract.ScoredChunk{evidenceChunk("c1", text)}}, provider)

	result, err := p.Execute(context.Background(), corpusQuery("what is a neural network?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != text {
		t.Fatalf("expected the generated answer, got %q", result.Answer)
	}
	if result.Verdict == nil || !result.Verdict.IsGrounded {
		t.Fatalf("expected grounded verdict, got %+v", result.Verdict)
	}
	if len(result.Sources) != 1 || result.Sources[0].Id != "c1" {
		t.Fatalf("expected source c1, got %+v", result.Sources)
	}
	if result.Sources[0].SimilarityScore != 0.9 {
		t.Fatalf("expected similarity 0.9, got %f", result.Sources[0].SimilarityScore)
	}
	if result.Timing.TotalMs <= 0 {
		t.Fatal("total timing must be recorded")
	}
}

func TestExecuteSubstitutesRefusalForUngroundedAnswer(t *testing.T) {
	provider := &fakeLLM{reply: "Quantum entanglement enables faster than light messaging across galaxies."}
	p := newTestPipeline(&fakeIndex{results: []*contract.ScoredChunk{
		evidenceChunk("c1", "The book describes tomato gardening in cold climates."),
	}}, provider)

	result, err := p.Execute(context.Background(), corpusQuery("what does the book say?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != response.RefusalMessage {
		t.Fatalf("expected refusal substitution, got %q", result.Answer)
	}
	if result.Verdict == nil || result.Verdict.IsGrounded {
		t.Fatal("original verdict must be reported even after substitution")
	}
	if result.Verdict.UnsupportedClaimRatio != 1.0 {
		t.Fatalf("expected unsupported ratio 1.0, got %f", result.Verdict.UnsupportedClaimRatio)
	}
}

func TestExecuteScopedModeUsesSyntheticChunk(t *testing.T) {
	provider := &fakeLLM{reply: "X causes Y. [chunk:scoped-text]"}
	p := newTestPipeline(&fakeIndex{}, provider)

	query := &store.Query{
		Text:           "What causes Y?",
		TopK:           5,
		Mode:           store.ModeScopedToText,
		ScopedText:     "X causes Y.",
		IncludeSources: true,
	}

	result, err := p.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Sources) != 1 {
		t.Fatalf("expected exactly one synthetic source, got %d", len(result.Sources))
	}
	if result.Sources[0].SourceURL != nil {
		t.Fatal("synthetic source must have nil source_url")
	}
}

func TestExecuteIncludeSourcesFalse(t *testing.T) {
	text := "A neural network is a layered machine learning model."
	provider := &fakeLLM{reply: text}
	p := newTestPipeline(&fakeIndex{results: []*contract.ScoredChunk{evidenceChunk("c1", text)}}, provider)

	query := corpusQuery("what is a neural network?")
	query.IncludeSources = false

	result, err := p.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(result.Sources))
	}
}

func TestExecutePropagatesInvalidInput(t *testing.T) {
	p := newTestPipeline(&fakeIndex{}, &fakeLLM{reply: "x"})

	_, err := p.Execute(context.Background(), &store.Query{Text: "", TopK: 5, Mode: store.ModeCorpusWide})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
