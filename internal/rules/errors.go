package rules

import "fmt"

// DefinitionError describes one malformed rule rejected at load time.
// Rule is the zero-based position of the entry in the source document.
type DefinitionError struct {
	Rule        int
	Description string
	Reason      string
}

func (e *DefinitionError) Error() string {
	name := e.Description
	if name == "" {
		name = fmt.Sprintf("rule %d", e.Rule)
	}
	return fmt.Sprintf("rule %d (%s): %s", e.Rule, name, e.Reason)
}

// UnsupportedPredicateError reports a field/predicate pairing that
// reached the evaluator despite loader validation. It indicates a
// programming error, not bad user input.
type UnsupportedPredicateError struct {
	Field     Field
	Predicate Predicate
}

func (e *UnsupportedPredicateError) Error() string {
	return fmt.Sprintf("predicate %q is not valid for field %q", e.Predicate, e.Field)
}
