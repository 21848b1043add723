package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkEmbedding struct {
	Id               string            `gorm:"type:text;primaryKey"`
	Document         string            `gorm:"type:text"`
	EmbeddingValue   pgvector.Vector   `gorm:"type:vector(1024)"` // Cohere embed-english-v3.0 uses 1024 dimensions
	SourceURL        string            `gorm:"type:text;index"`
	SectionPath      datatypes.JSON    `gorm:"type:jsonb"`
	SequencePosition int               `gorm:"default:0"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "text_embeddings"
}
