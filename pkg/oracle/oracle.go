// Package oracle is the boundary to the LLM-backed classifiers: the
// reset/refine action decision, the per-category field-mention
// classification, and the extraction of filter clauses for structured
// fields. Responses are strongly typed and validated; unparsable model
// output fails the call instead of being best-effort interpreted.
package oracle

import (
	"context"
	"errors"

	"dataset-discovery-be/pkg/predicate"
	"dataset-discovery-be/pkg/schema"
)

// Action is the turn-level classification. Exactly zero, one, or two of
// the flags may be true.
type Action struct {
	Reset  bool `json:"reset"`
	Refine bool `json:"refine"`
}

var (
	// ErrClassificationAmbiguous is returned when the oracle asserts
	// neither reset nor refine. Fatal for the turn; the session must stay
	// unmodified.
	ErrClassificationAmbiguous = errors.New("oracle classified the turn as neither reset nor refine")

	// ErrOracleUnavailable wraps transport or parse failures talking to
	// the model. Fatal for the turn.
	ErrOracleUnavailable = errors.New("intent oracle unavailable")
)

type Oracle interface {
	// InferAction decides reset vs refine for the current query in the
	// context of the previous one. When the model asserts both, refine
	// wins: a refine is a strict narrowing while a reset discards work.
	InferAction(ctx context.Context, currentQuery, previousQuery string) (Action, error)

	// InferMentionedFields lists the logical metadata fields of one
	// category mentioned by the query. Called once per category per turn;
	// the two classifications are independent.
	InferMentionedFields(ctx context.Context, query string, category schema.FieldCategory) ([]schema.LogicalField, error)

	// InferFilterClauses turns the query plus the identified structured
	// fields into loosely-formatted filter clauses for the predicate
	// compiler.
	InferFilterClauses(ctx context.Context, query string, fields []schema.LogicalField) ([]predicate.Clause, error)
}
