package embed

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/metricskey"
	"github.com/ollama/ollama/api"
)

type ollamaEmbedder struct {
	client *api.Client
	model  string
}

// NewOllama returns an embedder backed by an Ollama embedding model,
// such as nomic-embed-text.
func NewOllama(baseURL, model string) (Embedder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL: %s", baseURL)
	}
	return &ollamaEmbedder{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
	}, nil
}

func (e *ollamaEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	started := time.Now()
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	metricskey.PerfEmbedding.MeasureSince(started, e.model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embeddings")
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, errors.Newf("returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
