package hyse

import (
	"context"
	"errors"
	"testing"

	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	schemas []HypotheticalSchema
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, task string, n int) ([]HypotheticalSchema, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.schemas, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeSearcher struct {
	// one result list per call, consumed in order
	results [][]*entity.ScoredDataset
	calls   int

	lastColumn       contract.EmbeddingColumn
	lastCandidateSet []string
}

func (f *fakeSearcher) SearchSimilar(ctx context.Context, column contract.EmbeddingColumn, queryEmbedding []float32, candidateSet []string, limit int) ([]*entity.ScoredDataset, error) {
	f.lastColumn = column
	f.lastCandidateSet = candidateSet
	if f.calls >= len(f.results) {
		return nil, errors.New("no stubbed result")
	}
	r := f.results[f.calls]
	f.calls++
	return r, nil
}

func scoredResult(pairs ...interface{}) []*entity.ScoredDataset {
	var out []*entity.ScoredDataset
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, &entity.ScoredDataset{
			Dataset:    &entity.Dataset{Name: pairs[i].(string)},
			Similarity: pairs[i+1].(float64),
		})
	}
	return out
}

func twoVariantEngine(searcher *fakeSearcher) *Engine {
	gen := &fakeGenerator{schemas: []HypotheticalSchema{
		{TableName: "variant_a", ColumnNames: []string{"x"}, ColumnTypes: []string{"int"}},
		{TableName: "variant_b", ColumnNames: []string{"y"}, ColumnTypes: []string{"text"}},
	}}
	return NewEngine(gen, &fakeEmbedder{}, searcher, logger.NewNopLogger(), 2)
}

func TestSearchBySchemaMeanOverObservedVariants(t *testing.T) {
	// d1 observed by both variants, d2 only by the second; the absent
	// observation must not drag d2 down to 0.25
	searcher := &fakeSearcher{results: [][]*entity.ScoredDataset{
		scoredResult("d1", 0.8),
		scoredResult("d1", 0.6, "d2", 0.5),
	}}

	ranked, err := twoVariantEngine(searcher).SearchBySchema(context.Background(), "elections", nil, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "d1", ranked[0].Dataset.Name)
	assert.InDelta(t, 0.7, ranked[0].Score, 1e-9)
	assert.Equal(t, 2, ranked[0].Variants)

	assert.Equal(t, "d2", ranked[1].Dataset.Name)
	assert.InDelta(t, 0.5, ranked[1].Score, 1e-9)
	assert.Equal(t, 1, ranked[1].Variants)
}

func TestSearchBySchemaTopKTruncation(t *testing.T) {
	searcher := &fakeSearcher{results: [][]*entity.ScoredDataset{
		scoredResult("d1", 0.9, "d2", 0.8, "d3", 0.7),
		scoredResult("d1", 0.9, "d2", 0.8, "d3", 0.7),
	}}

	ranked, err := twoVariantEngine(searcher).SearchBySchema(context.Background(), "task", nil, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "d1", ranked[0].Dataset.Name)
	assert.Equal(t, "d2", ranked[1].Dataset.Name)
}

func TestSearchBySchemaDeterministicTieBreak(t *testing.T) {
	searcher := &fakeSearcher{results: [][]*entity.ScoredDataset{
		scoredResult("zebra", 0.5, "apple", 0.5),
		scoredResult("zebra", 0.5, "apple", 0.5),
	}}

	ranked, err := twoVariantEngine(searcher).SearchBySchema(context.Background(), "task", nil, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "apple", ranked[0].Dataset.Name)
	assert.Equal(t, "zebra", ranked[1].Dataset.Name)
}

func TestSearchBySchemaEmptyCandidateSet(t *testing.T) {
	searcher := &fakeSearcher{}

	ranked, err := twoVariantEngine(searcher).SearchBySchema(context.Background(), "task", []string{}, 10)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.Zero(t, searcher.calls, "an already-empty space must not hit the providers")
}

func TestSearchBySchemaUsesSchemaColumn(t *testing.T) {
	searcher := &fakeSearcher{results: [][]*entity.ScoredDataset{
		scoredResult("d1", 0.8),
		scoredResult("d1", 0.6),
	}}

	_, err := twoVariantEngine(searcher).SearchBySchema(context.Background(), "task", []string{"d1"}, 10)
	require.NoError(t, err)
	assert.Equal(t, contract.SchemaEmbeddingColumn, searcher.lastColumn)
	assert.Equal(t, []string{"d1"}, searcher.lastCandidateSet)
}

func TestSearchBySchemaGenerationFailureIsExternal(t *testing.T) {
	gen := &fakeGenerator{err: ErrExternalService}
	engine := NewEngine(gen, &fakeEmbedder{}, &fakeSearcher{}, logger.NewNopLogger(), 2)

	_, err := engine.SearchBySchema(context.Background(), "task", nil, 10)
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestSearchBySchemaEmbeddingFailureIsExternal(t *testing.T) {
	gen := &fakeGenerator{schemas: []HypotheticalSchema{{TableName: "t"}}}
	embedder := &fakeEmbedder{err: errors.New("model not loaded")}
	engine := NewEngine(gen, embedder, &fakeSearcher{}, logger.NewNopLogger(), 1)

	_, err := engine.SearchBySchema(context.Background(), "task", nil, 10)
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestSearchByQueryTextUsesQueryColumn(t *testing.T) {
	searcher := &fakeSearcher{results: [][]*entity.ScoredDataset{
		scoredResult("d1", 0.9),
	}}
	engine := NewEngine(&fakeGenerator{}, &fakeEmbedder{}, searcher, logger.NewNopLogger(), 2)

	ranked, err := engine.SearchByQueryText(context.Background(), "housing prices over time", []string{"d1", "d2"}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, contract.QueryEmbeddingColumn, searcher.lastColumn)
	assert.Equal(t, "d1", ranked[0].Dataset.Name)
}

func TestRenderIncludesColumnsAndExampleRow(t *testing.T) {
	h := HypotheticalSchema{
		TableName:   "election_results",
		ColumnNames: []string{"state", "votes"},
		ColumnTypes: []string{"text", "int"},
		ExampleRow:  []string{"Ohio", "5400000"},
	}

	rendered := h.Render()
	assert.Contains(t, rendered, "Table: election_results")
	assert.Contains(t, rendered, "state text")
	assert.Contains(t, rendered, "votes int")
	assert.Contains(t, rendered, "Ohio, 5400000")
}
