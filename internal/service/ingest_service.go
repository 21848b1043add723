package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/pkg/rag"
	"book-rag-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IIngestService interface {
	SubmitDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Stats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type ingestService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	index        contract.ChunkIndexRepository
	chunkSize    int
	chunkOverlap int
	dimension    int
	logger       logger.ILogger
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	index contract.ChunkIndexRepository,
	chunkSize, chunkOverlap, dimension int,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		pubSub:       pubSub,
		topicName:    topicName,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		dimension:    dimension,
		logger:       log,
	}
}

// SubmitDocument splits the document and queues it for embedding. Splitting
// happens synchronously so the caller learns the chunk count; embedding and
// index writes happen in the consumer.
func (s *ingestService) SubmitDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &rag.InvalidInputError{Reason: "document text is empty"}
	}

	chunks := utils.SplitDocument(req.Text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, &rag.InvalidInputError{Reason: "document produced no chunks"}
	}

	job := dto.IndexDocumentJob{
		SourceURL: req.SourceURL,
		Metadata:  req.Metadata,
		Chunks:    make([]dto.DocumentChunk, len(chunks)),
	}
	for i, c := range chunks {
		job.Chunks[i] = dto.DocumentChunk{
			Text:             c.Text,
			SectionPath:      c.SectionPath,
			SequencePosition: c.SequencePosition,
		}
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index job: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return nil, fmt.Errorf("failed to queue index job: %w", err)
	}

	s.logger.Info("ingest_service", "document queued for indexing", map[string]interface{}{
		"source_url": req.SourceURL,
		"chunks":     len(chunks),
	})

	return &dto.IngestDocumentResponse{
		SourceURL: req.SourceURL,
		Chunks:    len(chunks),
		Queued:    true,
	}, nil
}

func (s *ingestService) Stats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{
		Chunks:     count,
		Collection: "text_embeddings",
		Dimension:  s.dimension,
	}, nil
}
