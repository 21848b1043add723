package service

import (
	"context"

	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/memory"
	"book-rag-be/pkg/events"
)

// NewAnswerCacheInvalidator returns an event handler that flushes the answer
// cache whenever a document finishes (re)indexing. A cached answer reflects
// the corpus at generation time, so any index change invalidates all of them.
func NewAnswerCacheInvalidator(cache *memory.AnswerCache, log logger.ILogger) func(ctx context.Context, event events.Event) error {
	return func(ctx context.Context, event events.Event) error {
		cache.Flush()
		log.Info("cache_invalidator", "answer cache flushed after index change", map[string]interface{}{
			"event":   event.EventType(),
			"payload": event.Payload(),
		})
		return nil
	}
}
