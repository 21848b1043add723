package ragcontext

import (
	"fmt"
	"sort"
	"strings"

	"book-rag-be/pkg/store"
)

// AssembledContext is the single source of truth handed to the answer
// generator: the surviving chunks in render order plus the rendered block.
type AssembledContext struct {
	Chunks   []store.EvidenceChunk
	Rendered string
}

// Ids returns the ids of every chunk in the assembled context.
func (a *AssembledContext) Ids() []string {
	ids := make([]string, len(a.Chunks))
	for i, c := range a.Chunks {
		ids[i] = c.Id
	}
	return ids
}

// Contains reports whether the given chunk id is part of the context.
func (a *AssembledContext) Contains(id string) bool {
	for _, c := range a.Chunks {
		if c.Id == id {
			return true
		}
	}
	return false
}

// Assembler reconstructs retrieved chunks into a coherent context block.
// Chunks are grouped by source, each group ordered by sequence_position so a
// source reads in its original narrative order, and groups are concatenated
// in the order their best-scoring chunk first appeared in the ranking.
type Assembler struct {
	charBudget int
}

const DefaultCharBudget = 8000

func NewAssembler(charBudget int) *Assembler {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Assembler{charBudget: charBudget}
}

// Assemble builds the context. If the rendered block would exceed the char
// budget, the lowest-scoring whole chunks are dropped first; chunks are never
// truncated mid-sentence, since partial chunks break grounding validation.
func (a *Assembler) Assemble(chunks []store.EvidenceChunk) *AssembledContext {
	if len(chunks) == 0 {
		return &AssembledContext{Chunks: nil, Rendered: ""}
	}

	kept := a.fitBudget(chunks)
	ordered := orderForRendering(kept)

	var b strings.Builder
	for _, c := range ordered {
		b.WriteString(renderDelimiter(c))
		b.WriteString(c.Text)
		b.WriteString("\n--- END OF CHUNK ---\n\n")
	}

	return &AssembledContext{
		Chunks:   ordered,
		Rendered: b.String(),
	}
}

// fitBudget drops whole chunks, lowest similarity first, until the total
// text length fits. Retrieval order is preserved for the survivors.
func (a *Assembler) fitBudget(chunks []store.EvidenceChunk) []store.EvidenceChunk {
	total := 0
	for _, c := range chunks {
		total += len(c.Text)
	}
	if total <= a.charBudget {
		return chunks
	}

	type indexed struct {
		pos   int
		chunk store.EvidenceChunk
	}
	byScore := make([]indexed, len(chunks))
	for i, c := range chunks {
		byScore[i] = indexed{pos: i, chunk: c}
	}
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].chunk.SimilarityScore < byScore[j].chunk.SimilarityScore
	})

	dropped := make(map[int]bool)
	for _, cand := range byScore {
		if total <= a.charBudget {
			break
		}
		dropped[cand.pos] = true
		total -= len(cand.chunk.Text)
	}

	var kept []store.EvidenceChunk
	for i, c := range chunks {
		if !dropped[i] {
			kept = append(kept, c)
		}
	}
	return kept
}

// orderForRendering groups by source_url (first-appearance order of each
// source in the ranking) and sorts within a group by sequence_position
// ascending. Chunks without a source (synthetic) keep their own group.
func orderForRendering(chunks []store.EvidenceChunk) []store.EvidenceChunk {
	groupKey := func(c store.EvidenceChunk) string {
		if c.SourceURL == nil {
			return ""
		}
		return *c.SourceURL
	}

	var groupOrder []string
	groups := make(map[string][]store.EvidenceChunk)
	for _, c := range chunks {
		key := groupKey(c)
		if _, seen := groups[key]; !seen {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], c)
	}

	var ordered []store.EvidenceChunk
	for _, key := range groupOrder {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].SequencePosition < group[j].SequencePosition
		})
		ordered = append(ordered, group...)
	}
	return ordered
}

// renderDelimiter writes the attribution header so the generator and any
// human auditor can trace a sentence back to its chunk.
func renderDelimiter(c store.EvidenceChunk) string {
	source := "(scoped text)"
	if c.SourceURL != nil {
		source = *c.SourceURL
	}
	section := strings.Join(c.SectionPath, " > ")
	if section == "" {
		section = "(no section)"
	}
	return fmt.Sprintf("--- CHUNK %s | SOURCE: %s | SECTION: %s ---\n", c.Id, source, section)
}
