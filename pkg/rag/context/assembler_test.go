package ragcontext

import (
	"strings"
	"testing"

	"book-rag-be/pkg/store"
)

func strPtr(s string) *string { return &s }

func chunk(id, text, source string, pos int, score float64) store.EvidenceChunk {
	return store.EvidenceChunk{
		Id:               id,
		Text:             text,
		SimilarityScore:  score,
		SourceURL:        strPtr(source),
		SectionPath:      []string{"Chapter"},
		SequencePosition: pos,
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	assembled := NewAssembler(0).Assemble(nil)
	if len(assembled.Chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(assembled.Chunks))
	}
	if assembled.Rendered != "" {
		t.Fatal("expected empty rendered block")
	}
}

func TestAssembleOrdersWithinSourceBySequencePosition(t *testing.T) {
	// Retrieval rank puts position 7 first; rendering must restore document
	// order within the source.
	chunks := []store.EvidenceChunk{
		chunk("c7", "seventh", "book-a", 7, 0.9),
		chunk("c2", "second", "book-a", 2, 0.8),
		chunk("c5", "fifth", "book-a", 5, 0.7),
	}

	assembled := NewAssembler(0).Assemble(chunks)

	gotIds := assembled.Ids()
	wantIds := []string{"c2", "c5", "c7"}
	for i := range wantIds {
		if gotIds[i] != wantIds[i] {
			t.Fatalf("expected order %v, got %v", wantIds, gotIds)
		}
	}
}

func TestAssembleGroupsSourcesByBestRankFirstAppearance(t *testing.T) {
	chunks := []store.EvidenceChunk{
		chunk("a1", "from a", "book-a", 3, 0.95),
		chunk("b1", "from b", "book-b", 1, 0.90),
		chunk("a2", "also from a", "book-a", 1, 0.85),
	}

	assembled := NewAssembler(0).Assemble(chunks)

	gotIds := assembled.Ids()
	// book-a appeared first in the ranking, so its whole group renders first,
	// internally sorted by sequence position.
	wantIds := []string{"a2", "a1", "b1"}
	for i := range wantIds {
		if gotIds[i] != wantIds[i] {
			t.Fatalf("expected order %v, got %v", wantIds, gotIds)
		}
	}
}

func TestAssembleDropsLowestScoringWholeChunksOverBudget(t *testing.T) {
	long := strings.Repeat("x", 60)
	chunks := []store.EvidenceChunk{
		chunk("high", long, "book-a", 1, 0.9),
		chunk("mid", long, "book-a", 2, 0.5),
		chunk("low", long, "book-a", 3, 0.1),
	}

	// Budget fits two chunks of text; the lowest score goes first.
	assembled := NewAssembler(130).Assemble(chunks)

	if assembled.Contains("low") {
		t.Fatal("lowest-scoring chunk should have been dropped")
	}
	if !assembled.Contains("high") || !assembled.Contains("mid") {
		t.Fatalf("expected high and mid to survive, got %v", assembled.Ids())
	}
}

func TestAssembleRenderedCarriesProvenance(t *testing.T) {
	chunks := []store.EvidenceChunk{
		{
			Id:               "c1",
			Text:             "the text",
			SimilarityScore:  0.9,
			SourceURL:        strPtr("https://example.com/book"),
			SectionPath:      []string{"Ch.1", "Sec.1.2"},
			SequencePosition: 0,
		},
	}

	assembled := NewAssembler(0).Assemble(chunks)

	for _, want := range []string{"c1", "https://example.com/book", "Ch.1 > Sec.1.2", "the text"} {
		if !strings.Contains(assembled.Rendered, want) {
			t.Fatalf("rendered block missing %q:\n%s", want, assembled.Rendered)
		}
	}
}

func TestAssembleSyntheticChunkWithoutSource(t *testing.T) {
	chunks := []store.EvidenceChunk{
		{
			Id:              "scoped-text",
			Text:            "X causes Y.",
			SimilarityScore: 1.0,
			SourceURL:       nil,
			SectionPath:     []string{},
		},
	}

	assembled := NewAssembler(0).Assemble(chunks)

	if len(assembled.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(assembled.Chunks))
	}
	if !strings.Contains(assembled.Rendered, "X causes Y.") {
		t.Fatal("scoped text missing from rendered block")
	}
}
