package engine

import "errors"

// Condition evaluation failures. They are raised by the field and
// predicate primitives and always collapsed to a false condition (with a
// diagnostic) at the condition boundary; they never escape Evaluate.
var (
	// ErrUnsupportedPredicate means the predicate name is unknown, or not
	// applicable to the field's value kind.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")
	// ErrInvalidConditionValue means a date predicate was given a
	// non-integer value.
	ErrInvalidConditionValue = errors.New("invalid condition value")
	// ErrUnresolvedField means the field name has no canonical mapping.
	ErrUnresolvedField = errors.New("unresolved field")
)
