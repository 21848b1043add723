package specification

import (
	"encoding/json"
	"strings"

	"book-rag-be/internal/entity"

	"gorm.io/gorm"
)

// SourceURLEquals filters chunks by exact source URL.
type SourceURLEquals struct {
	Value string
}

func (s SourceURLEquals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_url = ?", s.Value)
}

func (s SourceURLEquals) Matches(chunk *entity.ChunkEmbedding) bool {
	return chunk.SourceURL == s.Value
}

// SourceURLContains filters chunks whose source URL contains the given
// fragment (case-insensitive).
type SourceURLContains struct {
	Value string
}

func (s SourceURLContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_url ILIKE ?", "%"+s.Value+"%")
}

func (s SourceURLContains) Matches(chunk *entity.ChunkEmbedding) bool {
	return strings.Contains(strings.ToLower(chunk.SourceURL), strings.ToLower(s.Value))
}

// SourceURLIn filters chunks whose source URL is one of the given values.
type SourceURLIn struct {
	Values []string
}

func (s SourceURLIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_url IN ?", s.Values)
}

func (s SourceURLIn) Matches(chunk *entity.ChunkEmbedding) bool {
	for _, v := range s.Values {
		if chunk.SourceURL == v {
			return true
		}
	}
	return false
}

// SectionPathEquals filters chunks by exact section path (root to leaf).
type SectionPathEquals struct {
	Value []string
}

func (s SectionPathEquals) Apply(db *gorm.DB) *gorm.DB {
	raw, _ := json.Marshal(s.Value)
	return db.Where("section_path = ?::jsonb", string(raw))
}

func (s SectionPathEquals) Matches(chunk *entity.ChunkEmbedding) bool {
	if len(chunk.SectionPath) != len(s.Value) {
		return false
	}
	for i, h := range s.Value {
		if chunk.SectionPath[i] != h {
			return false
		}
	}
	return true
}

// SectionPathContains filters chunks whose section path includes the given
// heading at any depth.
type SectionPathContains struct {
	Value string
}

func (s SectionPathContains) Apply(db *gorm.DB) *gorm.DB {
	raw, _ := json.Marshal([]string{s.Value})
	return db.Where("section_path @> ?::jsonb", string(raw))
}

func (s SectionPathContains) Matches(chunk *entity.ChunkEmbedding) bool {
	for _, h := range chunk.SectionPath {
		if h == s.Value {
			return true
		}
	}
	return false
}

// SequencePositionEquals filters chunks by original document position.
type SequencePositionEquals struct {
	Value int
}

func (s SequencePositionEquals) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sequence_position = ?", s.Value)
}

func (s SequencePositionEquals) Matches(chunk *entity.ChunkEmbedding) bool {
	return chunk.SequencePosition == s.Value
}

// SequencePositionIn filters chunks by a set of document positions.
type SequencePositionIn struct {
	Values []int
}

func (s SequencePositionIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sequence_position IN ?", s.Values)
}

func (s SequencePositionIn) Matches(chunk *entity.ChunkEmbedding) bool {
	for _, v := range s.Values {
		if chunk.SequencePosition == v {
			return true
		}
	}
	return false
}
