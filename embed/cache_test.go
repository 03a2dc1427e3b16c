package embed_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/comprice/deviceagent/embed"
	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscon "github.com/testcontainers/testcontainers-go/modules/redis"
)

type countingEmbedder struct {
	calls int
	texts []string
}

func (e *countingEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = append(e.texts, texts...)
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(len(texts[i])), 1}
	}
	return vecs, nil
}

func Test_CachedEmbedder(t *testing.T) {
	ctx := context.Background()
	redisContainer, err := rediscon.Run(ctx, "redis:7",
		testcontainers.WithConfigModifier(func(config *container.Config) {
			config.Env = []string{
				"ALLOW_EMPTY_PASSWORD=yes",
			}
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, redisContainer.Terminate(ctx))
	})

	host, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	options, err := redis.ParseURL(host)
	require.NoError(t, err)
	client := redis.NewClient(options)

	rs := client.Ping(ctx)
	require.NoError(t, rs.Err(), "failed to connect to Redis")

	prefix := fmt.Sprintf("test-%d", time.Now().Unix())

	backend := &countingEmbedder{}
	emb := embed.NewCached(backend, client, prefix)

	vecs, err := emb.CreateEmbedding(ctx, []string{"warranty policy", "return policy"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, 1, backend.calls)

	// both texts now served from the cache
	vecs2, err := emb.CreateEmbedding(ctx, []string{"warranty policy", "return policy"})
	require.NoError(t, err)
	assert.Equal(t, vecs, vecs2)
	assert.Equal(t, 1, backend.calls)

	// a mixed batch only sends the miss to the backend
	vecs3, err := emb.CreateEmbedding(ctx, []string{"warranty policy", "shipping cost"})
	require.NoError(t, err)
	require.Len(t, vecs3, 2)
	assert.Equal(t, vecs[0], vecs3[0])
	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, []string{"warranty policy", "return policy", "shipping cost"}, backend.texts)
}
