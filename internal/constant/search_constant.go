package constant

import "dataset-discovery-be/pkg/embedding"

// EmbeddingDimension is the fixed vector size shared by the embedding
// providers and the pgvector columns. Sourced from the provider layer so
// the two sides cannot drift; changing it requires re-embedding the
// corpus.
const EmbeddingDimension = embedding.Dimension

// Preview size returned to the UI alongside the full ranked list.
const ResultPreviewSize = 10

// Refine types recorded on system turns.
const (
	RefineTypeSemantic = "semantic"
	RefineTypeRaw      = "raw"
	RefineTypeBoth     = "both"
	RefineTypeNone     = "none"
)

// Turn senders.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)
