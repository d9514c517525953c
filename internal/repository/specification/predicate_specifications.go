package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// ScalarPredicate is a direct comparison against a scalar column. The
// operator must come from the predicate compiler's whitelist; values are
// always bound parameters, never interpolated.
type ScalarPredicate struct {
	Column   string
	Operator string
	Value    interface{}
}

func (s ScalarPredicate) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", s.Column, s.Operator), s.Value)
}

// ArrayAnyPredicate is an existential match over a jsonb string array:
// does ANY element satisfy `element OPERATOR value`. Array columns are
// never compared to scalars directly.
type ArrayAnyPredicate struct {
	Column   string
	Operator string
	Value    interface{}
}

func (s ArrayAnyPredicate) Apply(db *gorm.DB) *gorm.DB {
	sub := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS elem WHERE elem %s ?)",
		s.Column, s.Operator,
	)
	return db.Where(sub, s.Value)
}
