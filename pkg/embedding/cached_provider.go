package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CachedProvider memoises embeddings in process and, when a client is given,
// in Redis so restarts and sibling instances share the work.
type CachedProvider struct {
	next      EmbeddingProvider
	namespace string
	local     *cache.Cache
	rdb       *redis.Client
	ttl       time.Duration
}

func NewCachedProvider(next EmbeddingProvider, namespace string, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{
		next:      next,
		namespace: namespace,
		local:     cache.New(ttl, 10*time.Minute),
		rdb:       rdb,
		ttl:       ttl,
	}
}

func (p *CachedProvider) cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(p.namespace + "\x00" + taskType + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := p.cacheKey(text, taskType)

	if x, found := p.local.Get(key); found {
		return responseOf(x.([]float32)), nil
	}

	if p.rdb != nil {
		raw, err := p.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var values []float32
			if jsonErr := json.Unmarshal(raw, &values); jsonErr == nil && len(values) > 0 {
				p.local.Set(key, values, cache.DefaultExpiration)
				return responseOf(values), nil
			}
		case !errors.Is(err, redis.Nil):
			log.Printf("[WARN] embedding cache read failed: %v", err)
		}
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	values := res.Embedding.Values
	p.local.Set(key, values, cache.DefaultExpiration)
	if p.rdb != nil {
		if raw, err := json.Marshal(values); err == nil {
			if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
				log.Printf("[WARN] embedding cache write failed: %v", err)
			}
		}
	}

	return responseOf(values), nil
}

// responseOf copies so callers cannot mutate cached slices.
func responseOf(values []float32) *EmbeddingResponse {
	copied := make([]float32, len(values))
	copy(copied, values)
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: copied}}
}
