package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps an EmbeddingProvider with a Redis read-through cache.
// Hypothetical schemas for similar tasks repeat often, so a cache hit saves
// a full round trip to the embedding backend. Cache failures are treated as
// misses; the provider is the source of truth.
type CachedProvider struct {
	inner EmbeddingProvider
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(inner EmbeddingProvider, rdb *redis.Client, ttl time.Duration) EmbeddingProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(text, taskType)

	if cached, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var values []float32
		// Entries written by an older model may carry a different
		// dimension; treat those as misses
		if err := json.Unmarshal(cached, &values); err == nil && len(values) == Dimension {
			return &EmbeddingResponse{
				Embedding: EmbeddingResponseEmbedding{Values: values},
			}, nil
		}
	}

	resp, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp.Embedding.Values); err == nil {
		// Best effort; a write failure must not fail the embedding call
		p.rdb.Set(ctx, key, data, p.ttl)
	}

	return resp, nil
}

func cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return fmt.Sprintf("embed:%s", hex.EncodeToString(sum[:]))
}
