package entity

// ChunkEmbedding is one indexed unit of corpus text together with its vector
// and provenance payload. Owned by the index; the query pipeline only reads it.
type ChunkEmbedding struct {
	Id               string
	Document         string
	Embedding        []float32
	SourceURL        string
	SectionPath      []string
	SequencePosition int
	Metadata         map[string]interface{}
}
