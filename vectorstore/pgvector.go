// Package vectorstore retrieves knowledge-base documents by vector similarity
// from Postgres with the pgvector extension.
package vectorstore

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/embed"
	"github.com/effective-security/xlog"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "vectorstore")

// DefaultTopK is the number of documents returned per search.
const DefaultTopK = 3

// Document is one stored passage.
type Document struct {
	Content string
}

// Store searches a named collection by cosine distance.
type Store struct {
	db         *sql.DB
	embedder   embed.Embedder
	collection string
	topK       int
}

// New creates a store over an existing database handle. The collection must
// already exist; documents are written by the ingestion pipeline.
func New(db *sql.DB, embedder embed.Embedder, collection string) *Store {
	return &Store{
		db:         db,
		embedder:   embedder,
		collection: collection,
		topK:       DefaultTopK,
	}
}

// WithTopK overrides the number of documents returned per search.
func (s *Store) WithTopK(k int) *Store {
	if k > 0 {
		s.topK = k
	}
	return s
}

// searchQuery orders by cosine distance over the standard collection layout:
// one row per collection, embeddings joined by collection id.
const searchQuery = `
SELECT e.document
FROM langchain_pg_embedding e
JOIN langchain_pg_collection c ON e.collection_id = c.uuid
WHERE c.name = $1
ORDER BY e.embedding <=> $2
LIMIT $3`

// SimilaritySearch embeds the query and returns the closest documents.
func (s *Store) SimilaritySearch(ctx context.Context, query string) ([]Document, error) {
	vecs, err := s.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to embed query")
	}
	if len(vecs) == 0 {
		return nil, errors.New("embedder returned no vectors")
	}

	rows, err := s.db.QueryContext(ctx, searchQuery, s.collection, pgvector.NewVector(vecs[0]), s.topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search collection")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Content); err != nil {
			return nil, errors.Wrap(err, "failed to scan document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read documents")
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "similarity_search",
		"collection", s.collection,
		"count", len(docs),
	)
	return docs, nil
}
