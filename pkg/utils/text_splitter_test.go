package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	// Each step advances chunkSize-overlap, so consecutive chunks share a
	// 10-char tail/head.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.HasPrefix(chunks[i], prevTail) {
			t.Fatalf("chunk %d does not overlap with its predecessor", i)
		}
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := SplitText(text, 10, 10) // overlap >= chunkSize falls back to full steps
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
}

func TestSplitDocumentTracksHeadingStack(t *testing.T) {
	doc := `# Chapter 1
Intro text for chapter one.

## Section 1.1
Body of section one point one.

## Section 1.2
Body of section one point two.

# Chapter 2
Chapter two text.
`

	chunks := SplitDocument(doc, 1000, 0)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}

	wantPaths := [][]string{
		{"Chapter 1"},
		{"Chapter 1", "Section 1.1"},
		{"Chapter 1", "Section 1.2"},
		{"Chapter 2"},
	}
	for i, want := range wantPaths {
		got := chunks[i].SectionPath
		if len(got) != len(want) {
			t.Fatalf("chunk %d: expected path %v, got %v", i, want, got)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("chunk %d: expected path %v, got %v", i, want, got)
			}
		}
	}
}

func TestSplitDocumentSequencePositionsAreMonotonic(t *testing.T) {
	doc := "# A\n" + strings.Repeat("alpha bravo charlie delta echo. ", 30) +
		"\n# B\n" + strings.Repeat("foxtrot golf hotel india juliet. ", 30)

	chunks := SplitDocument(doc, 200, 20)
	if len(chunks) < 4 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.SequencePosition != i {
			t.Fatalf("expected position %d, got %d", i, c.SequencePosition)
		}
	}
}

func TestSplitDocumentNoHeadings(t *testing.T) {
	chunks := SplitDocument("plain text without any headings", 1000, 0)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0].SectionPath) != 0 {
		t.Fatalf("expected empty section path, got %v", chunks[0].SectionPath)
	}
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel int
		wantTitle string
	}{
		{"# Title", 1, "Title"},
		{"## Sub Title", 2, "Sub Title"},
		{"###### Deep", 6, "Deep"},
		{"####### Too deep", 0, ""},
		{"no heading", 0, ""},
		{"#", 0, ""},
		{"  ## Indented", 2, "Indented"},
	}

	for _, tt := range tests {
		level, title := parseHeading(tt.line)
		if level != tt.wantLevel || title != tt.wantTitle {
			t.Errorf("parseHeading(%q) = (%d, %q), want (%d, %q)", tt.line, level, title, tt.wantLevel, tt.wantTitle)
		}
	}
}
