package hyse

import (
	"context"
	"fmt"
	"sort"

	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/pkg/embedding"
)

// SimilaritySearcher is the slice of the dataset repository the engine
// needs. Satisfied by contract.DatasetRepository.
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, column contract.EmbeddingColumn, queryEmbedding []float32, candidateSet []string, limit int) ([]*entity.ScoredDataset, error)
}

// RankedDataset is one corpus entry with its aggregated score. Variants
// records how many schema variants actually observed the dataset; the
// score is the mean over those observations only.
type RankedDataset struct {
	Dataset  *entity.Dataset
	Score    float64
	Variants int
}

type Engine struct {
	generator SchemaGenerator
	embedder  embedding.EmbeddingProvider
	searcher  SimilaritySearcher
	log       logger.ILogger
	variants  int
}

func NewEngine(generator SchemaGenerator, embedder embedding.EmbeddingProvider, searcher SimilaritySearcher, log logger.ILogger, variants int) *Engine {
	if variants <= 0 {
		variants = 1
	}
	return &Engine{
		generator: generator,
		embedder:  embedder,
		searcher:  searcher,
		log:       log,
		variants:  variants,
	}
}

// SearchBySchema ranks the corpus against hypothetical schemas generated
// for the task. A nil candidateSet searches the whole corpus; an empty
// non-nil set short-circuits to an empty ranking.
func (e *Engine) SearchBySchema(ctx context.Context, task string, candidateSet []string, topK int) ([]RankedDataset, error) {
	if candidateSet != nil && len(candidateSet) == 0 {
		return []RankedDataset{}, nil
	}

	schemas, err := e.generator.Generate(ctx, task, e.variants)
	if err != nil {
		return nil, err
	}

	e.log.Debug("hyse", "generated hypothetical schemas", map[string]interface{}{
		"task":     task,
		"variants": len(schemas),
	})

	variantScores := make([][]*entity.ScoredDataset, 0, len(schemas))
	for _, hypoSchema := range schemas {
		scored, err := e.searchVariant(ctx, contract.SchemaEmbeddingColumn, hypoSchema.Render(), candidateSet, topK)
		if err != nil {
			return nil, err
		}
		variantScores = append(variantScores, scored)
	}

	return aggregate(variantScores, topK), nil
}

// SearchByQueryText ranks the corpus against the raw query text using the
// query-side embedding column. Used when a turn mentions semantic fields
// that describe intent rather than structure.
func (e *Engine) SearchByQueryText(ctx context.Context, query string, candidateSet []string, topK int) ([]RankedDataset, error) {
	if candidateSet != nil && len(candidateSet) == 0 {
		return []RankedDataset{}, nil
	}

	scored, err := e.searchVariant(ctx, contract.QueryEmbeddingColumn, query, candidateSet, topK)
	if err != nil {
		return nil, err
	}
	return aggregate([][]*entity.ScoredDataset{scored}, topK), nil
}

func (e *Engine) searchVariant(ctx context.Context, column contract.EmbeddingColumn, text string, candidateSet []string, limit int) ([]*entity.ScoredDataset, error) {
	response, err := e.embedder.Generate(ctx, text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", ErrExternalService, err)
	}

	scored, err := e.searcher.SearchSimilar(ctx, column, response.Embedding.Values, candidateSet, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return scored, nil
}

// aggregate folds per-variant rankings into one. A dataset's score is the
// arithmetic mean over the variants that returned it; variants that did
// not observe it contribute nothing, not zero. Ties break on name so the
// ranking is deterministic.
func aggregate(variantScores [][]*entity.ScoredDataset, topK int) []RankedDataset {
	type accumulator struct {
		dataset *entity.Dataset
		sum     float64
		count   int
	}

	byName := make(map[string]*accumulator)
	for _, scored := range variantScores {
		for _, s := range scored {
			acc, ok := byName[s.Dataset.Name]
			if !ok {
				acc = &accumulator{dataset: s.Dataset}
				byName[s.Dataset.Name] = acc
			}
			acc.sum += s.Similarity
			acc.count++
		}
	}

	ranked := make([]RankedDataset, 0, len(byName))
	for _, acc := range byName {
		ranked = append(ranked, RankedDataset{
			Dataset:  acc.dataset,
			Score:    acc.sum / float64(acc.count),
			Variants: acc.count,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Dataset.Name < ranked[j].Dataset.Name
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
