package grounding

import (
	"fmt"
	"regexp"
	"strings"

	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/store"
)

// Validator checks a generated answer against the assembled evidence using
// lexical trigram overlap. Each answer sentence must share enough trigrams
// with the context to count as supported; the unsupported ratio decides the
// verdict. Lexical scoring keeps validation deterministic and offline.
type Validator struct {
	overlapThreshold    float64 // min fraction of a sentence's trigrams found in context
	maxUnsupportedRatio float64 // verdict tolerance, 0.0 = zero tolerance
}

const (
	DefaultOverlapThreshold    = 0.4
	DefaultMaxUnsupportedRatio = 0.0
)

func NewValidator(overlapThreshold, maxUnsupportedRatio float64) *Validator {
	if overlapThreshold <= 0 {
		overlapThreshold = DefaultOverlapThreshold
	}
	return &Validator{
		overlapThreshold:    overlapThreshold,
		maxUnsupportedRatio: maxUnsupportedRatio,
	}
}

// Validate scores every sentence of the answer against the context.
func (v *Validator) Validate(answer *store.GeneratedAnswer, assembled *ragcontext.AssembledContext) store.GroundingVerdict {
	sentences := SplitSentences(answer.Text)
	if len(sentences) == 0 {
		return store.GroundingVerdict{
			IsGrounded:            false,
			UnsupportedClaimRatio: 1.0,
			Reason:                "answer contains no scorable sentences",
		}
	}

	contextGrams := make(map[string]bool)
	for _, c := range assembled.Chunks {
		for _, g := range trigrams(tokenize(c.Text)) {
			contextGrams[g] = true
		}
	}
	contextTokens := make(map[string]bool)
	for _, c := range assembled.Chunks {
		for _, t := range tokenize(c.Text) {
			contextTokens[t] = true
		}
	}

	unsupported := 0
	for _, sentence := range sentences {
		if !v.supported(sentence, contextGrams, contextTokens) {
			unsupported++
		}
	}

	ratio := float64(unsupported) / float64(len(sentences))
	verdict := store.GroundingVerdict{
		IsGrounded:            ratio <= v.maxUnsupportedRatio,
		UnsupportedClaimRatio: ratio,
	}
	if !verdict.IsGrounded {
		verdict.Reason = fmt.Sprintf("%d of %d sentences lack sufficient overlap with the evidence", unsupported, len(sentences))
	}
	return verdict
}

func (v *Validator) supported(sentence string, contextGrams, contextTokens map[string]bool) bool {
	tokens := tokenize(sentence)
	if len(tokens) == 0 {
		return true
	}

	// Short sentences have no trigrams; fall back to token overlap.
	grams := trigrams(tokens)
	if len(grams) == 0 {
		hits := 0
		for _, t := range tokens {
			if contextTokens[t] {
				hits++
			}
		}
		return float64(hits)/float64(len(tokens)) >= v.overlapThreshold
	}

	hits := 0
	for _, g := range grams {
		if contextGrams[g] {
			hits++
		}
	}
	return float64(hits)/float64(len(grams)) >= v.overlapThreshold
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+|\n+`)
var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// SplitSentences breaks answer text into scorable sentences.
func SplitSentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	var sentences []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	parts := nonWord.Split(lowered, -1)
	var tokens []string
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func trigrams(tokens []string) []string {
	if len(tokens) < 3 {
		return nil
	}
	grams := make([]string, 0, len(tokens)-2)
	for i := 0; i+2 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1]+" "+tokens[i+2])
	}
	return grams
}
