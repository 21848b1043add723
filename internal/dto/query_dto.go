package dto

// FilterDTO is one user-supplied payload predicate.
type FilterDTO struct {
	Field    string      `json:"field" validate:"required"`
	Operator string      `json:"operator" validate:"required,oneof=equals contains in"`
	Value    interface{} `json:"value" validate:"required"`
}

type ChatRequest struct {
	Query          string      `json:"query" validate:"required,max=2000"`
	TopK           int         `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
	Filters        []FilterDTO `json:"filters,omitempty" validate:"omitempty,dive"`
	Mode           string      `json:"mode,omitempty" validate:"omitempty,oneof=corpus-wide scoped-to-text"`
	ScopedText     *string     `json:"scoped_text,omitempty"`
	IncludeSources *bool       `json:"include_sources,omitempty"`
}

type SourceDTO struct {
	ChunkId         string   `json:"chunk_id"`
	SourceURL       *string  `json:"source_url"`
	SectionPath     []string `json:"section_path"`
	SimilarityScore float64  `json:"similarity_score"`
}

type TimingDTO struct {
	EmbeddingMs  float64 `json:"embedding_ms"`
	SearchMs     float64 `json:"search_ms"`
	GenerationMs float64 `json:"generation_ms"`
	ValidationMs float64 `json:"validation_ms"`
	TotalMs      float64 `json:"total_ms"`
}

type ChatResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceDTO `json:"sources"`
	QueryId string      `json:"query_id"`
	Timing  TimingDTO   `json:"timing"`
}
