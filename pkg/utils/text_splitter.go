package utils

import (
	"strings"
)

// Chunk is one splitter output unit with its provenance inside the document.
type Chunk struct {
	Text             string
	SectionPath      []string
	SequencePosition int
}

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with an 'overlap' to preserve context at boundaries. This is a
// character-based splitter; rune-safe but not tokenizer-aware.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}

// SplitDocument splits markdown-ish book text into chunks that carry their
// section path. Headings (lines starting with '#') maintain a heading stack:
// a level-2 heading replaces everything at depth >= 2. Body text under the
// current stack is split with SplitText, and every produced chunk gets a
// monotonically increasing sequence position across the whole document.
func SplitDocument(text string, chunkSize int, overlap int) []Chunk {
	var chunks []Chunk
	var headingStack []string
	var body strings.Builder
	position := 0

	flush := func() {
		trimmed := strings.TrimSpace(body.String())
		body.Reset()
		if trimmed == "" {
			return
		}
		path := make([]string, len(headingStack))
		copy(path, headingStack)
		for _, part := range SplitText(trimmed, chunkSize, overlap) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:             part,
				SectionPath:      path,
				SequencePosition: position,
			})
			position++
		}
	}

	for _, line := range strings.Split(text, "\n") {
		level, title := parseHeading(line)
		if level == 0 {
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		flush()

		if level <= len(headingStack) {
			headingStack = headingStack[:level-1]
		}
		headingStack = append(headingStack, title)
	}
	flush()

	return chunks
}

// parseHeading returns the heading level and title for markdown '# ...' lines,
// or level 0 when the line is not a heading.
func parseHeading(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	title := strings.TrimSpace(trimmed[level:])
	if title == "" {
		return 0, ""
	}
	return level, title
}
