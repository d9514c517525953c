package predicate

import "dataset-discovery-be/pkg/schema"

// Clause is the loosely-formatted filter condition the oracle extracts for
// one structured field, e.g. {column_count, "> 10"} or
// {temporal_granularity, "= 'year'"}. The compiler turns clauses into
// executable predicates.
type Clause struct {
	Field      schema.LogicalField `json:"field"`
	ClauseText string              `json:"clause"`
}
