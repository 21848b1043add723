package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher is the outbound event bus surface the consumer needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	index             contract.ChunkIndexRepository
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    EventPublisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	index contract.ChunkIndexRepository,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		index:             index,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.IndexDocumentJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal index job", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("consumer", "processing index job", map[string]interface{}{
		"source_url": job.SourceURL,
		"chunks":     len(job.Chunks),
	})

	chunks := make([]*entity.ChunkEmbedding, 0, len(job.Chunks))
	for _, c := range job.Chunks {
		vector, err := cs.embeddingProvider.Generate(ctx, c.Text, embedding.RoleDocument)
		if err != nil {
			cs.logger.Error("consumer", "failed to embed chunk", map[string]interface{}{
				"source_url": job.SourceURL,
				"position":   c.SequencePosition,
				"error":      err.Error(),
			})
			msg.Nack() // Nack for retriable errors
			return
		}

		chunks = append(chunks, &entity.ChunkEmbedding{
			Id:               chunkId(job.SourceURL, c.SequencePosition),
			Document:         c.Text,
			Embedding:        vector,
			SourceURL:        job.SourceURL,
			SectionPath:      c.SectionPath,
			SequencePosition: c.SequencePosition,
			Metadata:         job.Metadata,
		})
	}

	// Re-ingest replaces: old chunks for the source go first so stale text
	// never survives a shrinking document.
	if err := cs.index.DeleteBySource(ctx, job.SourceURL); err != nil {
		cs.logger.Error("consumer", "failed to delete old chunks", map[string]interface{}{
			"source_url": job.SourceURL,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	if err := cs.index.Upsert(ctx, chunks); err != nil {
		cs.logger.Error("consumer", "failed to upsert chunks", map[string]interface{}{
			"source_url": job.SourceURL,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.NewDocumentIndexed(job.SourceURL, len(chunks))); err != nil {
			// The index write already succeeded; a lost event is not worth a redo.
			cs.logger.Warn("consumer", "failed to publish indexed event", map[string]interface{}{
				"source_url": job.SourceURL,
				"error":      err.Error(),
			})
		}
	}

	cs.logger.Info("consumer", "document indexed", map[string]interface{}{
		"source_url": job.SourceURL,
		"chunks":     len(chunks),
	})
	msg.Ack()
}

// chunkId derives a stable id from the source and position, so re-ingesting
// the same document overwrites in place.
func chunkId(sourceURL string, position int) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("%x-%d", sum[:8], position)
}
