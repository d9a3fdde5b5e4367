// Package vector provides the index clients the pipeline stores chunk
// embeddings in. Two backends exist: a local disk index and Redis with
// RediSearch. Both operate on one named collection.
package vector

import (
	"context"
	"fmt"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/config"
)

const (
	// DefaultTopK is used when a caller passes a non-positive k.
	DefaultTopK = 5
	// MaxTopK caps a single search.
	MaxTopK = 100
)

// Store is a vector index over one collection of documents.
type Store interface {
	// Upsert writes documents and their embedding vectors. Documents
	// without an ID get one assigned.
	Upsert(ctx context.Context, docs []rag.Document) error

	// Search returns the topK documents closest to the query vector,
	// highest score first.
	Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchResult, error)

	// DeleteCollection removes every document in the collection.
	DeleteCollection(ctx context.Context) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying connection or file handles.
	Close() error
}

// Open builds the store selected by the configuration. dim is the embedding
// dimension, required by the Redis backend to create its index.
func Open(ctx context.Context, cfg *config.Settings, dim int) (Store, error) {
	switch cfg.VectorStore {
	case config.StoreRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:       cfg.RedisAddr,
			Collection: cfg.Collection,
			VectorDim:  dim,
		})
	case config.StoreLocal:
		return NewLocalStore(LocalConfig{
			Path:       cfg.IndexPath,
			Collection: cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

func clampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}
