package implementation

import (
	"context"
	"errors"
	"strings"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/mapper"
	"book-rag-be/internal/model"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/specification"
	"book-rag-be/pkg/rag"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChunkIndexRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkEmbeddingMapper
}

func NewChunkIndexRepository(db *gorm.DB) contract.ChunkIndexRepository {
	return &ChunkIndexRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkEmbeddingMapper(),
	}
}

func (r *ChunkIndexRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkIndexRepositoryImpl) Upsert(ctx context.Context, chunks []*entity.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.ChunkEmbedding, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(models).Error

	return mapIndexError(err)
}

// Search runs a cosine similarity scan. Cosine distance in pgvector is
// 1 - cosine_similarity, so similarity = 1 - (embedding_value <=> query).
// Specifications land in the WHERE clause, so filtering happens before the
// LIMIT cut; ordering is similarity DESC with id ASC as the deterministic
// tie-break.
func (r *ChunkIndexRepositoryImpl) Search(ctx context.Context, vector []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		model.ChunkEmbedding
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(vector)

	query := r.db.WithContext(ctx).
		Table("text_embeddings").
		Select("text_embeddings.*, 1 - (embedding_value <=> ?) AS similarity", queryVector)

	query = r.applySpecifications(query, specs...)

	err := query.
		Order("similarity DESC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, mapIndexError(err)
	}

	scored := make([]*contract.ScoredChunk, len(rows))
	for i, res := range rows {
		scored[i] = &contract.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.ChunkEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *ChunkIndexRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChunkEmbedding{}).Count(&count).Error
	if err != nil {
		return 0, mapIndexError(err)
	}
	return count, nil
}

func (r *ChunkIndexRepositoryImpl) DeleteBySource(ctx context.Context, sourceURL string) error {
	err := r.db.WithContext(ctx).
		Where("source_url = ?", sourceURL).
		Delete(&model.ChunkEmbedding{}).Error
	return mapIndexError(err)
}

// mapIndexError translates driver errors into the pipeline taxonomy. A
// missing table or vector extension is a provisioning bug and must surface
// immediately; everything else at this layer is treated as transient.
func mapIndexError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "does not exist") || strings.Contains(msg, "undefined_table") {
		return &rag.CollectionNotFoundError{Collection: model.ChunkEmbedding{}.TableName()}
	}
	return &rag.IndexUnavailableError{Err: err}
}
