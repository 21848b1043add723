package dto

// IngestDocumentRequest submits one document for chunking and indexing.
// Re-submitting the same source_url replaces its previously indexed chunks.
type IngestDocumentRequest struct {
	SourceURL string                 `json:"source_url" validate:"required,max=2048"`
	Text      string                 `json:"text" validate:"required"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type IngestDocumentResponse struct {
	SourceURL string `json:"source_url"`
	Chunks    int    `json:"chunks"`
	Queued    bool   `json:"queued"`
}

// IndexDocumentJob is the internal queue payload between the ingest service
// and the embedding consumer.
type IndexDocumentJob struct {
	SourceURL string                 `json:"source_url"`
	Chunks    []DocumentChunk        `json:"chunks"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type DocumentChunk struct {
	Text             string   `json:"text"`
	SectionPath      []string `json:"section_path"`
	SequencePosition int      `json:"sequence_position"`
}

type IndexStatsResponse struct {
	Chunks     int64  `json:"chunks"`
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
}
