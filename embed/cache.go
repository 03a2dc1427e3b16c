package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached embedding stays valid.
const DefaultCacheTTL = 24 * time.Hour

type cachedEmbedder struct {
	next   Embedder
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCached wraps an embedder with a Redis cache. Repeated queries for the
// same text skip the backend call.
func NewCached(next Embedder, client *redis.Client, prefix string) Embedder {
	return &cachedEmbedder{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    DefaultCacheTTL,
	}
}

func (e *cachedEmbedder) key(text string) string {
	return path.Join(e.prefix, "embeddings", fmt.Sprintf("%x", xxhash.Sum64String(text)))
}

func (e *cachedEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = e.key(text)
	}

	result := make([][]float32, len(texts))
	var missing []int

	cached, err := e.client.MGet(ctx, keys...).Result()
	if err != nil {
		// cache failures degrade to the backend
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_read", "err", err.Error())
		cached = make([]any, len(texts))
	}
	for i, item := range cached {
		data, ok := item.(string)
		if !ok {
			missing = append(missing, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(data), &vec); err != nil {
			logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_decode", "err", err.Error())
			missing = append(missing, i)
			continue
		}
		result[i] = vec
	}

	if len(missing) == 0 {
		return result, nil
	}

	uncached := make([]string, len(missing))
	for i, idx := range missing {
		uncached[i] = texts[idx]
	}

	fresh, err := e.next.CreateEmbedding(ctx, uncached)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, errors.Newf("returned %d embeddings for %d texts", len(fresh), len(missing))
	}

	pipe := e.client.Pipeline()
	for i, idx := range missing {
		result[idx] = fresh[i]
		data, err := json.Marshal(fresh[i])
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal embedding")
		}
		pipe.Set(ctx, keys[idx], data, e.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.ContextKV(ctx, xlog.WARNING, "reason", "cache_write", "err", err.Error())
	}

	return result, nil
}
