// Package embed produces vector embeddings for knowledge-base queries.
package embed

import (
	"context"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "embed")

// Embedder creates embeddings from texts.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
