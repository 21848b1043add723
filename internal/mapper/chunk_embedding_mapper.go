package mapper

import (
	"encoding/json"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkEmbeddingMapper struct{}

func NewChunkEmbeddingMapper() *ChunkEmbeddingMapper {
	return &ChunkEmbeddingMapper{}
}

func (m *ChunkEmbeddingMapper) ToModel(e *entity.ChunkEmbedding) *model.ChunkEmbedding {
	sectionPath, _ := json.Marshal(e.SectionPath)

	metadata := datatypes.JSONMap{}
	for k, v := range e.Metadata {
		metadata[k] = v
	}

	return &model.ChunkEmbedding{
		Id:               e.Id,
		Document:         e.Document,
		EmbeddingValue:   pgvector.NewVector(e.Embedding),
		SourceURL:        e.SourceURL,
		SectionPath:      datatypes.JSON(sectionPath),
		SequencePosition: e.SequencePosition,
		Metadata:         metadata,
	}
}

func (m *ChunkEmbeddingMapper) ToEntity(mo *model.ChunkEmbedding) *entity.ChunkEmbedding {
	var sectionPath []string
	if len(mo.SectionPath) > 0 {
		_ = json.Unmarshal(mo.SectionPath, &sectionPath)
	}

	metadata := map[string]interface{}{}
	for k, v := range mo.Metadata {
		metadata[k] = v
	}

	return &entity.ChunkEmbedding{
		Id:               mo.Id,
		Document:         mo.Document,
		Embedding:        mo.EmbeddingValue.Slice(),
		SourceURL:        mo.SourceURL,
		SectionPath:      sectionPath,
		SequencePosition: mo.SequencePosition,
		Metadata:         metadata,
	}
}
