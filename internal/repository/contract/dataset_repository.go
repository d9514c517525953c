package contract

import (
	"context"

	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/repository/specification"
)

// EmbeddingColumn selects which stored vector a similarity query ranks
// against.
type EmbeddingColumn string

const (
	// SchemaEmbeddingColumn ranks against the hypothetical-schema channel.
	SchemaEmbeddingColumn EmbeddingColumn = "schema_embedding"
	// QueryEmbeddingColumn ranks against the stored previous-queries channel.
	QueryEmbeddingColumn EmbeddingColumn = "query_embedding"
)

type DatasetRepository interface {
	Create(ctx context.Context, dataset *entity.Dataset) error
	CreateBulk(ctx context.Context, datasets []*entity.Dataset) error
	Update(ctx context.Context, dataset *entity.Dataset) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Dataset, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Dataset, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar runs a nearest-neighbor query against the chosen
	// embedding column, ordered by descending cosine similarity
	// (1 - cosine_distance). A non-nil candidateSet restricts matches to
	// those dataset names; an empty non-nil set returns no rows.
	SearchSimilar(ctx context.Context, column EmbeddingColumn, embedding []float32, candidateSet []string, limit int) ([]*entity.ScoredDataset, error)

	// UpdateEmbeddings writes both stored vectors for a dataset.
	UpdateEmbeddings(ctx context.Context, name string, schemaEmbedding, queryEmbedding []float32) error
}
