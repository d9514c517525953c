package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     LogicalField
		wantOk   bool
		wantKind ValueKind
		wantCol  string
	}{
		{FieldColumnCount, true, KindScalarNumeric, "column_count"},
		{FieldPopularity, true, KindScalarNumeric, "popularity"},
		{FieldName, true, KindScalarText, "name"},
		{FieldTemporalGranularity, true, KindArrayOfText, "temporal_granularity"},
		{FieldGeographicGranularity, true, KindArrayOfText, "geographic_granularity"},
		{LogicalField("file_size"), false, "", ""},
		{LogicalField(""), false, "", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			f, ok := Resolve(tt.name)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.wantKind, f.Kind)
				assert.Equal(t, tt.wantCol, f.Column)
			}
		})
	}
}

func TestFieldsByCategoryPartition(t *testing.T) {
	semantic := FieldsByCategory(CategorySemantic)
	structured := FieldsByCategory(CategoryStructured)

	assert.Len(t, semantic, 4)
	assert.Len(t, structured, 5)

	seen := map[LogicalField]bool{}
	for _, f := range append(semantic, structured...) {
		assert.False(t, seen[f], "field %s in both categories", f)
		seen[f] = true
	}
}

func TestIsSemantic(t *testing.T) {
	assert.True(t, IsSemantic(FieldDescription))
	assert.True(t, IsSemantic(FieldTags))
	assert.False(t, IsSemantic(FieldColumnCount))
	assert.False(t, IsSemantic(LogicalField("unknown")))
}
