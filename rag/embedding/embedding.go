// Package embedding wraps an eino embedder with the float32 conversion,
// batching rules, and error classification the rest of the pipeline expects.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/docentai/docent/rag"
)

// Service generates embedding vectors for chunk and query text.
type Service struct {
	embedder embedding.Embedder

	mu  sync.RWMutex
	dim int
}

// NewService creates an embedding service. dim may be zero, in which case
// the dimension is learned from the first vector the model returns.
func NewService(embedder embedding.Embedder, dim int) *Service {
	return &Service{
		embedder: embedder,
		dim:      dim,
	}
}

// Embed generates an embedding vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, rag.WrapServiceError("embedding service", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	s.observeDim(len(vectors[0]))
	return toFloat32(vectors[0]), nil
}

// EmbedBatch generates embedding vectors for multiple texts. Empty texts
// yield nil vectors at their positions so indexes line up with the input.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	var validTexts []string
	var indices []int
	for i, text := range texts {
		if text != "" {
			validTexts = append(validTexts, text)
			indices = append(indices, i)
		}
	}
	if len(validTexts) == 0 {
		return nil, fmt.Errorf("no valid texts to embed")
	}

	vectors, err := s.embedder.EmbedStrings(ctx, validTexts)
	if err != nil {
		return nil, rag.WrapServiceError("embedding service", err)
	}
	if len(vectors) != len(validTexts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d texts", len(vectors), len(validTexts))
	}

	result := make([][]float32, len(texts))
	for i, vec := range vectors {
		if len(vec) > 0 {
			s.observeDim(len(vec))
		}
		result[indices[i]] = toFloat32(vec)
	}
	return result, nil
}

// Dimension returns the embedding dimension, or zero when no vector has
// been seen yet and none was configured.
func (s *Service) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Probe embeds a short throwaway text to learn the model's dimension before
// the first real document arrives. Stores that size indexes by dimension
// need it up front.
func (s *Service) Probe(ctx context.Context) (int, error) {
	if d := s.Dimension(); d > 0 {
		return d, nil
	}
	vec, err := s.Embed(ctx, "dimension probe")
	if err != nil {
		return 0, err
	}
	return len(vec), nil
}

func (s *Service) observeDim(n int) {
	s.mu.Lock()
	if s.dim == 0 {
		s.dim = n
	}
	s.mu.Unlock()
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
