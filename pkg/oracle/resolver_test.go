package oracle

import (
	"context"
	"errors"
	"testing"

	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/llm"
	"dataset-discovery-be/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "", options...)
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no stubbed response")
}

func newTestResolver(s *stubLLM) *Resolver {
	return NewResolver(s, logger.NewNopLogger())
}

func TestInferActionRefine(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{`{"reset": false, "refine": true}`}})

	action, err := r.InferAction(context.Background(), "only ones with more columns", "election data")
	require.NoError(t, err)
	assert.False(t, action.Reset)
	assert.True(t, action.Refine)
}

func TestInferActionNeitherIsAmbiguous(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{`{"reset": false, "refine": false}`}})

	_, err := r.InferAction(context.Background(), "huh", "election data")
	assert.ErrorIs(t, err, ErrClassificationAmbiguous)
}

func TestInferActionBothMeansRefine(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{`{"reset": true, "refine": true}`}})

	action, err := r.InferAction(context.Background(), "q", "p")
	require.NoError(t, err)
	assert.True(t, action.Refine)
	assert.False(t, action.Reset)
}

func TestInferActionSurroundingProse(t *testing.T) {
	// Models wrap JSON in prose; the resolver extracts the object
	r := newTestResolver(&stubLLM{responses: []string{
		"Sure! Here is the classification:\n{\"reset\": true, \"refine\": false}\nHope this helps.",
	}})

	action, err := r.InferAction(context.Background(), "q", "p")
	require.NoError(t, err)
	assert.True(t, action.Reset)
}

func TestInferActionUnparsableFailsClosed(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{"reset", "reset"}})

	_, err := r.InferAction(context.Background(), "q", "p")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestInferActionRetriesOnce(t *testing.T) {
	s := &stubLLM{
		errs:      []error{errors.New("connection refused"), nil},
		responses: []string{"", `{"reset": false, "refine": true}`},
	}
	r := newTestResolver(s)

	action, err := r.InferAction(context.Background(), "q", "p")
	require.NoError(t, err)
	assert.True(t, action.Refine)
	assert.Equal(t, 2, s.calls)
}

func TestInferActionProviderDown(t *testing.T) {
	s := &stubLLM{errs: []error{errors.New("down"), errors.New("down")}}
	r := newTestResolver(s)

	_, err := r.InferAction(context.Background(), "q", "p")
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestInferMentionedFieldsDropsUnknown(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{
		`{"mentioned_fields": ["column_count", "file_size", "popularity"]}`,
	}})

	fields, err := r.InferMentionedFields(context.Background(), "q", schema.CategoryStructured)
	require.NoError(t, err)
	assert.Equal(t, []schema.LogicalField{schema.FieldColumnCount, schema.FieldPopularity}, fields)
}

func TestInferMentionedFieldsRejectsWrongCategory(t *testing.T) {
	// description is a semantic field; a structured-category call must drop it
	r := newTestResolver(&stubLLM{responses: []string{
		`{"mentioned_fields": ["description", "column_count"]}`,
	}})

	fields, err := r.InferMentionedFields(context.Background(), "q", schema.CategoryStructured)
	require.NoError(t, err)
	assert.Equal(t, []schema.LogicalField{schema.FieldColumnCount}, fields)
}

func TestInferFilterClauses(t *testing.T) {
	r := newTestResolver(&stubLLM{responses: []string{
		`{"clauses": [{"field": "column_count", "clause": "> 10"}]}`,
	}})

	clauses, err := r.InferFilterClauses(context.Background(), "more than 10 columns", []schema.LogicalField{schema.FieldColumnCount})
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, schema.FieldColumnCount, clauses[0].Field)
	assert.Equal(t, "> 10", clauses[0].ClauseText)
}

func TestInferFilterClausesNoFields(t *testing.T) {
	s := &stubLLM{}
	r := newTestResolver(s)

	clauses, err := r.InferFilterClauses(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, clauses)
	assert.Zero(t, s.calls)
}
