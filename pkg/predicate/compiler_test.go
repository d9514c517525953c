package predicate

import (
	"testing"

	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileScalarNumeric(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.FieldPopularity, ClauseText: "> 5000"},
	}, nil)

	require.Empty(t, warnings)
	require.Len(t, compiled.Specs, 1)

	pred, ok := compiled.Specs[0].(specification.ScalarPredicate)
	require.True(t, ok, "expected a scalar predicate, got %T", compiled.Specs[0])
	assert.Equal(t, "popularity", pred.Column)
	assert.Equal(t, ">", pred.Operator)
	assert.Equal(t, int64(5000), pred.Value)
}

func TestCompileArrayFieldIsExistential(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.FieldTemporalGranularity, ClauseText: "= 'year'"},
	}, nil)

	require.Empty(t, warnings)
	require.Len(t, compiled.Specs, 1)

	pred, ok := compiled.Specs[0].(specification.ArrayAnyPredicate)
	require.True(t, ok, "array field must compile to an existential predicate, got %T", compiled.Specs[0])
	assert.Equal(t, "temporal_granularity", pred.Column)
	assert.Equal(t, "=", pred.Operator)
	assert.Equal(t, "year", pred.Value)
}

func TestCompileCandidateSetRestriction(t *testing.T) {
	compiled, _ := Compile([]Clause{
		{Field: schema.FieldColumnCount, ClauseText: "> 10"},
	}, []string{"a", "b"})

	require.Len(t, compiled.Specs, 2)
	names, ok := compiled.Specs[0].(specification.ByNames)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, names.Names)
}

func TestCompileNilCandidateSetUnrestricted(t *testing.T) {
	compiled, _ := Compile([]Clause{
		{Field: schema.FieldColumnCount, ClauseText: "> 10"},
	}, nil)

	require.Len(t, compiled.Specs, 1)
	_, isNames := compiled.Specs[0].(specification.ByNames)
	assert.False(t, isNames)
}

func TestCompileUnknownFieldTolerance(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.LogicalField("file_size"), ClauseText: "> 100"},
		{Field: schema.FieldColumnCount, ClauseText: "> 10"},
	}, nil)

	require.Len(t, compiled.Specs, 1)
	pred := compiled.Specs[0].(specification.ScalarPredicate)
	assert.Equal(t, "column_count", pred.Column)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnFieldMappingUnknown, warnings[0].Kind)
}

func TestCompileMalformedClauses(t *testing.T) {
	tests := []struct {
		name   string
		clause string
	}{
		{"no whitespace", ">2020"},
		{"operator only", "> "},
		{"single token", "descending-ish"},
		{"bad operator", "~= 10"},
		{"non numeric for numeric field", "> many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, warnings := Compile([]Clause{
				{Field: schema.FieldColumnCount, ClauseText: tt.clause},
			}, nil)

			assert.Empty(t, compiled.Specs)
			require.Len(t, warnings, 1)
			assert.Equal(t, WarnMalformedClause, warnings[0].Kind)
		})
	}
}

func TestCompileOrderingDirective(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.FieldPopularity, ClauseText: "order desc"},
	}, nil)

	require.Empty(t, warnings)
	assert.Empty(t, compiled.Specs)
	require.NotNil(t, compiled.Ordering)
	assert.Equal(t, "popularity", compiled.Ordering.Field)
	assert.True(t, compiled.Ordering.Desc)
}

func TestCompileLastOrderingWins(t *testing.T) {
	compiled, _ := Compile([]Clause{
		{Field: schema.FieldPopularity, ClauseText: "order desc"},
		{Field: schema.FieldColumnCount, ClauseText: "order asc"},
	}, nil)

	require.NotNil(t, compiled.Ordering)
	assert.Equal(t, "column_count", compiled.Ordering.Field)
	assert.False(t, compiled.Ordering.Desc)
}

func TestCompileQuoteStrippingAndLowercase(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.FieldGeographicGranularity, ClauseText: `= "County"`},
	}, nil)

	require.Empty(t, warnings)
	pred := compiled.Specs[0].(specification.ArrayAnyPredicate)
	assert.Equal(t, "county", pred.Value)
}

func TestCompileOperatorNormalization(t *testing.T) {
	compiled, warnings := Compile([]Clause{
		{Field: schema.FieldName, ClauseText: "<> 'census'"},
	}, nil)

	require.Empty(t, warnings)
	pred := compiled.Specs[0].(specification.ScalarPredicate)
	assert.Equal(t, "!=", pred.Operator)
}

func TestAllSpecsAppendsOrderingLast(t *testing.T) {
	compiled, _ := Compile([]Clause{
		{Field: schema.FieldColumnCount, ClauseText: "> 10"},
		{Field: schema.FieldPopularity, ClauseText: "order desc"},
	}, []string{"a"})

	specs := compiled.AllSpecs()
	require.Len(t, specs, 3)
	_, isOrder := specs[2].(specification.OrderBy)
	assert.True(t, isOrder)
}
