// Package predicate compiles oracle-identified metadata fields and their
// loosely-formatted conditions into validated, composable filter
// specifications over the dataset corpus.
package predicate

import (
	"fmt"
	"strconv"
	"strings"

	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/pkg/schema"
)

// WarningKind classifies the non-fatal reasons a clause was dropped.
type WarningKind string

const (
	WarnFieldMappingUnknown WarningKind = "field_mapping_unknown"
	WarnMalformedClause     WarningKind = "malformed_clause"
)

type Warning struct {
	Kind   WarningKind
	Field  schema.LogicalField
	Detail string
}

// CompiledQuery is the executable form of a refinement filter: the
// candidate-set restriction plus every surviving predicate, combined
// conjunctively, and at most one ordering directive.
type CompiledQuery struct {
	Specs    []specification.Specification
	Ordering *specification.OrderBy
}

// AllSpecs returns filter specs plus the ordering, ready to hand to the
// repository.
func (q CompiledQuery) AllSpecs() []specification.Specification {
	specs := q.Specs
	if q.Ordering != nil {
		specs = append(append([]specification.Specification(nil), specs...), *q.Ordering)
	}
	return specs
}

var allowedOperators = map[string]string{
	"=":  "=",
	"==": "=",
	"!=": "!=",
	"<>": "!=",
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
}

// Compile turns clauses into a conjunctive predicate set restricted to the
// candidate set (when non-nil). Bad clauses degrade: unknown fields and
// malformed conditions are dropped with warnings so a turn with one bad
// clause still filters on the good ones.
func Compile(clauses []Clause, candidateSet []string) (CompiledQuery, []Warning) {
	var compiled CompiledQuery
	var warnings []Warning

	if candidateSet != nil {
		compiled.Specs = append(compiled.Specs, specification.ByNames{Names: candidateSet})
	}

	for _, clause := range clauses {
		field, ok := schema.Resolve(clause.Field)
		if !ok {
			warnings = append(warnings, Warning{
				Kind:   WarnFieldMappingUnknown,
				Field:  clause.Field,
				Detail: fmt.Sprintf("unknown logical field %q", clause.Field),
			})
			continue
		}

		text := strings.TrimSpace(clause.ClauseText)

		if dir, isOrdering := parseOrdering(text); isOrdering {
			// Last ordering directive wins
			compiled.Ordering = &specification.OrderBy{Field: field.Column, Desc: dir}
			continue
		}

		operator, literal, ok := splitClause(text)
		if !ok {
			warnings = append(warnings, Warning{
				Kind:   WarnMalformedClause,
				Field:  clause.Field,
				Detail: fmt.Sprintf("cannot split %q into operator and value", clause.ClauseText),
			})
			continue
		}

		op, ok := allowedOperators[operator]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:   WarnMalformedClause,
				Field:  clause.Field,
				Detail: fmt.Sprintf("unsupported operator %q", operator),
			})
			continue
		}

		value, err := coerceValue(field.Kind, literal)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:   WarnMalformedClause,
				Field:  clause.Field,
				Detail: err.Error(),
			})
			continue
		}

		if field.Kind == schema.KindArrayOfText {
			// Existential element match; an array is never compared to a
			// scalar directly
			compiled.Specs = append(compiled.Specs, specification.ArrayAnyPredicate{
				Column:   field.Column,
				Operator: op,
				Value:    value,
			})
		} else {
			compiled.Specs = append(compiled.Specs, specification.ScalarPredicate{
				Column:   field.Column,
				Operator: op,
				Value:    value,
			})
		}
	}

	return compiled, warnings
}

// parseOrdering detects sort directives like "order desc" or "asc".
func parseOrdering(text string) (desc bool, ok bool) {
	found := false
	for _, token := range strings.Fields(strings.ToLower(text)) {
		switch token {
		case "order", "order_by", "sort":
			found = true
		case "asc", "ascending":
			found = true
			desc = false
		case "desc", "descending":
			found = true
			desc = true
		}
	}
	return desc, found
}

// splitClause splits on the first whitespace into operator and value
// literal, stripping surrounding quotes and lowercasing the literal.
func splitClause(text string) (operator, literal string, ok bool) {
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return "", "", false
	}
	operator = strings.TrimSpace(text[:idx])
	literal = strings.TrimSpace(text[idx+1:])
	if operator == "" || literal == "" {
		return "", "", false
	}
	literal = strings.Trim(literal, `'"`)
	literal = strings.ToLower(literal)
	if literal == "" {
		return "", "", false
	}
	return operator, literal, true
}

func coerceValue(kind schema.ValueKind, literal string) (interface{}, error) {
	if kind != schema.KindScalarNumeric {
		return literal, nil
	}
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("value %q is not numeric", literal)
}
