package embedding

import (
	"context"
	"fmt"
)

// Dimension is the vector size every provider returns: 768 for both
// nomic-embed-text and text-embedding-004. The pgvector columns are
// declared with the same size, so any other length would be rejected
// per-row at Postgres; checking here fails the call at the source.
const Dimension = 768

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

func checkDimension(values []float32) error {
	if len(values) != Dimension {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(values), Dimension)
	}
	return nil
}
