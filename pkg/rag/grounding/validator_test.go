package grounding

import (
	"testing"

	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/store"
)

func assembledFrom(texts ...string) *ragcontext.AssembledContext {
	chunks := make([]store.EvidenceChunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.EvidenceChunk{
			Id:              "c" + string(rune('1'+i)),
			Text:            text,
			SimilarityScore: 0.9,
		}
	}
	return ragcontext.NewAssembler(0).Assemble(chunks)
}

func TestValidateGroundedAnswer(t *testing.T) {
	assembled := assembledFrom(
		"A neural network is a machine learning model composed of layers of interconnected nodes.",
	)
	answer := &store.GeneratedAnswer{
		Text: "A neural network is a machine learning model composed of layers of interconnected nodes.",
	}

	verdict := NewValidator(DefaultOverlapThreshold, DefaultMaxUnsupportedRatio).Validate(answer, assembled)

	if !verdict.IsGrounded {
		t.Fatalf("expected grounded verdict, got ratio %.2f (%s)", verdict.UnsupportedClaimRatio, verdict.Reason)
	}
	if verdict.UnsupportedClaimRatio != 0 {
		t.Fatalf("expected zero unsupported ratio, got %.2f", verdict.UnsupportedClaimRatio)
	}
}

func TestValidateUngroundedAnswer(t *testing.T) {
	assembled := assembledFrom(
		"The book discusses gardening techniques for growing tomatoes in cold climates.",
	)
	answer := &store.GeneratedAnswer{
		Text: "Quantum entanglement allows faster than light communication between distant particles.",
	}

	verdict := NewValidator(DefaultOverlapThreshold, DefaultMaxUnsupportedRatio).Validate(answer, assembled)

	if verdict.IsGrounded {
		t.Fatal("expected ungrounded verdict for fabricated answer")
	}
	if verdict.UnsupportedClaimRatio != 1.0 {
		t.Fatalf("expected unsupported ratio 1.0, got %.2f", verdict.UnsupportedClaimRatio)
	}
	if verdict.Reason == "" {
		t.Fatal("expected a reason on an ungrounded verdict")
	}
}

func TestValidateMixedAnswerRatio(t *testing.T) {
	assembled := assembledFrom(
		"The protagonist travels to the northern mountains in search of the lost city.",
	)
	answer := &store.GeneratedAnswer{
		Text: "The protagonist travels to the northern mountains in search of the lost city. " +
			"Meanwhile the stock market crashed because of rising interest rates worldwide.",
	}

	verdict := NewValidator(DefaultOverlapThreshold, DefaultMaxUnsupportedRatio).Validate(answer, assembled)

	if verdict.IsGrounded {
		t.Fatal("expected ungrounded verdict under zero tolerance")
	}
	if verdict.UnsupportedClaimRatio != 0.5 {
		t.Fatalf("expected unsupported ratio 0.5, got %.2f", verdict.UnsupportedClaimRatio)
	}
}

func TestValidateSoftToleranceAcceptsMixedAnswer(t *testing.T) {
	assembled := assembledFrom(
		"The protagonist travels to the northern mountains in search of the lost city.",
	)
	answer := &store.GeneratedAnswer{
		Text: "The protagonist travels to the northern mountains in search of the lost city. " +
			"Meanwhile the stock market crashed because of rising interest rates worldwide.",
	}

	verdict := NewValidator(DefaultOverlapThreshold, 0.5).Validate(answer, assembled)

	if !verdict.IsGrounded {
		t.Fatalf("expected grounded verdict with 0.5 tolerance, got ratio %.2f", verdict.UnsupportedClaimRatio)
	}
}

func TestValidateEmptyAnswer(t *testing.T) {
	assembled := assembledFrom("Some context.")
	answer := &store.GeneratedAnswer{Text: "   "}

	verdict := NewValidator(DefaultOverlapThreshold, DefaultMaxUnsupportedRatio).Validate(answer, assembled)

	if verdict.IsGrounded {
		t.Fatal("expected empty answer to be ungrounded")
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "single sentence", text: "One sentence here.", want: 1},
		{name: "two sentences", text: "First sentence. Second sentence.", want: 2},
		{name: "newline separated", text: "First line\nSecond line", want: 2},
		{name: "question and exclamation", text: "Really? Yes! Indeed.", want: 3},
		{name: "empty", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != tt.want {
				t.Fatalf("expected %d sentences, got %d: %v", tt.want, len(got), got)
			}
		})
	}
}
