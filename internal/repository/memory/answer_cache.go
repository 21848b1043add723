package memory

import (
	"time"

	"book-rag-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// AnswerCache holds recent query results keyed by the canonical request hash.
// With a deterministic generator configuration, identical requests within the
// TTL can be answered without re-running the pipeline.
type AnswerCache struct {
	cache *cache.Cache
}

func NewAnswerCache(ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		return &AnswerCache{}
	}
	return &AnswerCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *AnswerCache) Get(key string) (*store.QueryResult, bool) {
	if c.cache == nil {
		return nil, false
	}
	if x, found := c.cache.Get(key); found {
		return x.(*store.QueryResult), true
	}
	return nil, false
}

func (c *AnswerCache) Set(key string, result *store.QueryResult) {
	if c.cache == nil {
		return
	}
	c.cache.Set(key, result, cache.DefaultExpiration)
}

// Flush drops every cached answer. Called when the corpus changes, since
// cached answers are only valid against the snapshot they were generated from.
func (c *AnswerCache) Flush() {
	if c.cache == nil {
		return
	}
	c.cache.Flush()
}
