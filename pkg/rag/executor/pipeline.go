package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"book-rag-be/internal/pkg/logger"
	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/search"
	"book-rag-be/pkg/store"
)

// Pipeline state, advanced strictly forward. A query is in exactly one state
// at a time; ERRORED and COMPLETE are terminal.
type State string

const (
	StateReceived   State = "RECEIVED"
	StateEmbedding  State = "EMBEDDING"
	StateRetrieving State = "RETRIEVING"
	StateAssembling State = "ASSEMBLING"
	StateGenerating State = "GENERATING"
	StateValidating State = "VALIDATING"
	StateComplete   State = "COMPLETE"
	StateErrored    State = "ERRORED"
)

// Pipeline drives a query through retrieval, assembly, generation and
// grounding validation. It owns the overall deadline and the per-query
// timing breakdown; the stage components own their own retries.
type Pipeline struct {
	retriever       *search.Retriever
	assembler       *ragcontext.Assembler
	generator       *response.Generator
	validator       *grounding.Validator
	generateTimeout time.Duration
	overallTimeout  time.Duration
	logger          logger.ILogger
}

type Config struct {
	GenerateTimeout time.Duration
	OverallTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		GenerateTimeout: 15 * time.Second,
		OverallTimeout:  30 * time.Second,
	}
}

func NewPipeline(
	retriever *search.Retriever,
	assembler *ragcontext.Assembler,
	generator *response.Generator,
	validator *grounding.Validator,
	cfg Config,
	log logger.ILogger,
) *Pipeline {
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 15 * time.Second
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = 30 * time.Second
	}
	return &Pipeline{
		retriever:       retriever,
		assembler:       assembler,
		generator:       generator,
		validator:       validator,
		generateTimeout: cfg.GenerateTimeout,
		overallTimeout:  cfg.OverallTimeout,
		logger:          log,
	}
}

// Execute runs one query end to end. The returned result is complete on
// success; on error the caller maps the typed error to a response. A query
// that retrieves nothing is a success with the fixed no-information answer
// and zero generation/validation timings.
func (p *Pipeline) Execute(ctx context.Context, query *store.Query) (*store.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.overallTimeout)
	defer cancel()

	queryId := uuid.New().String()
	state := StateReceived
	started := time.Now()

	result := &store.QueryResult{QueryId: queryId}

	fail := func(err error) (*store.QueryResult, error) {
		// Stage timings accumulated before the failure stay on the record, so
		// a deadline exhaustion shows where the budget went.
		p.logger.Error("pipeline", "query failed", map[string]interface{}{
			"query_id":      queryId,
			"state":         string(state),
			"error":         err.Error(),
			"embedding_ms":  result.Timing.EmbeddingMs,
			"search_ms":     result.Timing.SearchMs,
			"generation_ms": result.Timing.GenerationMs,
			"total_ms":      elapsedMs(started),
		})
		return nil, err
	}

	// Retrieval covers both the EMBEDDING and RETRIEVING states; the
	// retriever reports the split timing.
	state = StateEmbedding
	chunks, retrievalTiming, err := p.retriever.Retrieve(ctx, query)
	result.Timing.EmbeddingMs = retrievalTiming.EmbeddingMs
	result.Timing.SearchMs = retrievalTiming.SearchMs
	if err != nil {
		return fail(err)
	}
	state = StateRetrieving

	if len(chunks) == 0 {
		// Empty retrieval short-circuits: no generation, no validation.
		result.Answer = response.NoRelevantInformationMessage
		result.Sources = []store.EvidenceChunk{}
		result.Timing.TotalMs = elapsedMs(started)
		p.logger.Info("pipeline", "empty retrieval, returning fixed answer", map[string]interface{}{
			"query_id": queryId,
		})
		return result, nil
	}

	state = StateAssembling
	assembled := p.assembler.Assemble(chunks)

	state = StateGenerating
	genStart := time.Now()
	genCtx, genCancel := context.WithTimeout(ctx, p.generateTimeout)
	answer, err := p.generator.Generate(genCtx, query.Text, assembled)
	genCancel()
	result.Timing.GenerationMs = elapsedMs(genStart)
	if err != nil {
		return fail(err)
	}

	state = StateValidating
	valStart := time.Now()
	verdict := p.validator.Validate(answer, assembled)
	result.Timing.ValidationMs = elapsedMs(valStart)

	answerText := answer.Text
	if !verdict.IsGrounded {
		// Substitute, never repair: the original answer is logged for audit
		// and discarded.
		p.logger.Warn("pipeline", "answer failed grounding validation, substituting refusal", map[string]interface{}{
			"query_id":          queryId,
			"unsupported_ratio": verdict.UnsupportedClaimRatio,
			"reason":            verdict.Reason,
			"original_answer":   answer.Text,
		})
		answerText = response.RefusalMessage
	}

	state = StateComplete
	result.Answer = answerText
	result.Verdict = &verdict
	result.Sources = sourcesFor(query, chunks, answer)
	result.Timing.TotalMs = elapsedMs(started)

	p.logger.Info("pipeline", "query completed", map[string]interface{}{
		"query_id":    queryId,
		"state":       string(state),
		"chunks":      len(chunks),
		"is_grounded": verdict.IsGrounded,
		"total_ms":    result.Timing.TotalMs,
	})

	return result, nil
}

// sourcesFor selects the chunks reported back to the caller. Cited chunks
// come first in citation order, then the remaining retrieved chunks in rank
// order. When the caller opted out of sources the list is empty, never nil.
func sourcesFor(query *store.Query, chunks []store.EvidenceChunk, answer *store.GeneratedAnswer) []store.EvidenceChunk {
	if !query.IncludeSources {
		return []store.EvidenceChunk{}
	}

	byId := make(map[string]store.EvidenceChunk, len(chunks))
	for _, c := range chunks {
		byId[c.Id] = c
	}

	seen := make(map[string]bool)
	var sources []store.EvidenceChunk
	for _, id := range answer.CitedChunkIds {
		if c, ok := byId[id]; ok && !seen[id] {
			seen[id] = true
			sources = append(sources, c)
		}
	}
	for _, c := range chunks {
		if !seen[c.Id] {
			seen[c.Id] = true
			sources = append(sources, c)
		}
	}
	return sources
}

func elapsedMs(since time.Time) float64 {
	return float64(time.Since(since).Microseconds()) / 1000.0
}
