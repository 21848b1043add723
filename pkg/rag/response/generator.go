package response

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/rag"
	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/store"
)

// Generator produces an answer constrained to the assembled context. The
// prompt is a hard behavioral contract: answer only from the context, state
// inability when the context is insufficient, cite chunk ids.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      log,
	}
}

const systemPrompt = "You are a book-based assistant. You must answer strictly using the provided book context. " +
	"If the answer is not present in the context, say exactly: '" + RefusalMessage + "' " +
	"Do not use any external knowledge."

var citationPattern = regexp.MustCompile(`\[chunk:([^\]\s]+)\]`)

// Generate runs the model once, retrying a single time if the backend is
// transiently unavailable. Timeouts are not retried so end-to-end latency
// stays bounded.
func (g *Generator) Generate(ctx context.Context, queryText string, assembled *ragcontext.AssembledContext) (*store.GeneratedAnswer, error) {
	if assembled == nil || len(assembled.Chunks) == 0 {
		return nil, fmt.Errorf("cannot generate: assembled context is empty")
	}

	prompt := g.buildGroundedPrompt(queryText, assembled)
	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}

	raw, err := g.llmProvider.Chat(ctx, history, llm.WithTemperature(0.1))
	if err != nil && isRetryableGeneration(err) {
		g.logger.Warn("generator", "generation failed, retrying once", map[string]interface{}{
			"error": err.Error(),
		})
		raw, err = g.llmProvider.Chat(ctx, history, llm.WithTemperature(0.1))
	}
	if err != nil {
		return nil, err
	}

	text, cited := extractCitations(raw, assembled)

	return &store.GeneratedAnswer{
		Text:          strings.TrimSpace(text),
		CitedChunkIds: cited,
	}, nil
}

func (g *Generator) buildGroundedPrompt(queryText string, assembled *ragcontext.AssembledContext) string {
	var prompt strings.Builder

	prompt.WriteString("<book_context>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n")
	prompt.WriteString("Each chunk is delimited by a header naming its id, source and section.\n\n")
	prompt.WriteString(assembled.Rendered)
	prompt.WriteString("</book_context>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("1. Answer ONLY using the text in <book_context>.\n")
	prompt.WriteString("2. If the context does not contain sufficient information, reply exactly: '" + RefusalMessage + "'\n")
	prompt.WriteString("3. After each claim, cite the supporting chunk as [chunk:<id>] using ids from the chunk headers.\n")
	prompt.WriteString("4. Be concise and factual. Do not speculate.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(queryText)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}

// extractCitations strips [chunk:id] markers from the answer text and
// returns the cited ids, restricted to ids actually present in the context.
func extractCitations(text string, assembled *ragcontext.AssembledContext) (string, []string) {
	seen := make(map[string]bool)
	var cited []string

	for _, match := range citationPattern.FindAllStringSubmatch(text, -1) {
		id := match[1]
		if !assembled.Contains(id) || seen[id] {
			continue
		}
		seen[id] = true
		cited = append(cited, id)
	}

	cleaned := citationPattern.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return cleaned, cited
}

// Only the transient class is retried; timeouts are fatal per request.
func isRetryableGeneration(err error) bool {
	var target *rag.GenerationUnavailableError
	return errors.As(err, &target)
}
