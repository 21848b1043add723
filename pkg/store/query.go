package store

// Query modes. CorpusWide searches the vector index; ScopedToText answers
// strictly from user-supplied text and bypasses retrieval.
const (
	ModeCorpusWide   = "corpus-wide"
	ModeScopedToText = "scoped-to-text"
)

// Filter operators accepted by the metadata filter.
const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpIn       = "in"
)

// FilterClause is a single user-supplied payload predicate.
type FilterClause struct {
	Field    string
	Operator string
	Value    interface{}
}

// Query is the immutable unit of work for one request.
type Query struct {
	Text           string
	TopK           int
	Filters        []FilterClause
	Mode           string
	ScopedText     string
	IncludeSources bool
}

// EvidenceChunk is one retrieved unit of corpus text, read-only to the
// pipeline. SourceURL is nil for the synthetic chunk of scoped-to-text mode.
type EvidenceChunk struct {
	Id               string
	Text             string
	SimilarityScore  float64
	SourceURL        *string
	SectionPath      []string
	SequencePosition int
	RawMetadata      map[string]interface{}
}

// GeneratedAnswer is the raw model output before grounding validation.
type GeneratedAnswer struct {
	Text          string
	CitedChunkIds []string
}

// GroundingVerdict is the result of checking an answer against its evidence.
type GroundingVerdict struct {
	IsGrounded            bool
	UnsupportedClaimRatio float64
	Reason                string
}

// Timing holds per-stage durations in milliseconds. Stages that were skipped
// (e.g. generation after an empty retrieval) stay at zero.
type Timing struct {
	EmbeddingMs  float64
	SearchMs     float64
	GenerationMs float64
	ValidationMs float64
	TotalMs      float64
}

// QueryResult is the pipeline output consumed by the transport layer.
type QueryResult struct {
	QueryId string
	Answer  string
	Sources []EvidenceChunk
	Verdict *GroundingVerdict
	Timing  Timing
}
