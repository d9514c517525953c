// Package schema is the metadata schema registry: the single place that
// maps logical dataset-metadata field names onto physical storage columns
// and routes each field into the semantic or structured search path.
package schema

// FieldCategory partitions metadata fields by how a mention of them is
// handled: semantic fields re-run the similarity search, structured fields
// compile into filter predicates. The partition determines routing, not
// just labeling.
type FieldCategory string

const (
	CategorySemantic   FieldCategory = "semantic"
	CategoryStructured FieldCategory = "raw"
)

// ValueKind decides the predicate shape a field supports.
type ValueKind string

const (
	KindScalarNumeric ValueKind = "scalar-numeric"
	KindScalarText    ValueKind = "scalar-text"
	KindArrayOfText   ValueKind = "array-of-text"
)

// LogicalField is the closed set of field names the oracle may identify.
// Adding a field is a single-place change: extend the constants and the
// registry table below.
type LogicalField string

const (
	// Semantic fields
	FieldSchema         LogicalField = "schema"
	FieldExampleRecords LogicalField = "example_records"
	FieldDescription    LogicalField = "description"
	FieldTags           LogicalField = "tags"

	// Structured fields
	FieldName                  LogicalField = "name"
	FieldColumnCount           LogicalField = "column_count"
	FieldPopularity            LogicalField = "popularity"
	FieldTemporalGranularity   LogicalField = "temporal_granularity"
	FieldGeographicGranularity LogicalField = "geographic_granularity"
)

// PhysicalField describes the storage-side attribute a logical field
// resolves to.
type PhysicalField struct {
	Logical  LogicalField
	Column   string
	Kind     ValueKind
	Category FieldCategory
}

var registry = map[LogicalField]PhysicalField{
	FieldSchema:         {Logical: FieldSchema, Column: "schema_text", Kind: KindScalarText, Category: CategorySemantic},
	FieldExampleRecords: {Logical: FieldExampleRecords, Column: "example_records", Kind: KindScalarText, Category: CategorySemantic},
	FieldDescription:    {Logical: FieldDescription, Column: "description", Kind: KindScalarText, Category: CategorySemantic},
	FieldTags:           {Logical: FieldTags, Column: "tags", Kind: KindArrayOfText, Category: CategorySemantic},

	FieldName:                  {Logical: FieldName, Column: "name", Kind: KindScalarText, Category: CategoryStructured},
	FieldColumnCount:           {Logical: FieldColumnCount, Column: "column_count", Kind: KindScalarNumeric, Category: CategoryStructured},
	FieldPopularity:            {Logical: FieldPopularity, Column: "popularity", Kind: KindScalarNumeric, Category: CategoryStructured},
	FieldTemporalGranularity:   {Logical: FieldTemporalGranularity, Column: "temporal_granularity", Kind: KindArrayOfText, Category: CategoryStructured},
	FieldGeographicGranularity: {Logical: FieldGeographicGranularity, Column: "geographic_granularity", Kind: KindArrayOfText, Category: CategoryStructured},
}

// Resolve maps a logical field name to its physical attribute. Unknown
// names return ok=false; callers drop the field with a warning instead of
// aborting the turn.
func Resolve(name LogicalField) (PhysicalField, bool) {
	f, ok := registry[name]
	return f, ok
}

// FieldsByCategory lists the logical fields belonging to a category, used
// to scope the oracle's field-mention classification.
func FieldsByCategory(category FieldCategory) []LogicalField {
	var fields []LogicalField
	for _, f := range registry {
		if f.Category == category {
			fields = append(fields, f.Logical)
		}
	}
	return fields
}

// IsSemantic reports whether a known field routes to the semantic path.
func IsSemantic(name LogicalField) bool {
	f, ok := registry[name]
	return ok && f.Category == CategorySemantic
}
