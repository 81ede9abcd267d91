// Package rules implements the triage rule engine: a closed vocabulary
// of fields, predicates, and actions, loaded from a JSON definition and
// evaluated against stored message metadata.
package rules

import (
	"time"

	"github.com/joshsymonds/mailtriage/internal/message"
)

// Field names a message attribute a condition compares against.
type Field int

const (
	FieldFrom Field = iota
	FieldSubject
	FieldBody
	FieldReceivedAt
)

func (f Field) String() string {
	switch f {
	case FieldFrom:
		return "From"
	case FieldSubject:
		return "Subject"
	case FieldBody:
		return "Message"
	case FieldReceivedAt:
		return "Received Date/Time"
	default:
		return "unknown"
	}
}

// Predicate names the comparison applied to an extracted field value.
type Predicate int

const (
	PredContains Predicate = iota
	PredNotContains
	PredEquals
	PredNotEquals
	PredOlderThan
	PredNewerThan
)

func (p Predicate) String() string {
	switch p {
	case PredContains:
		return "contains"
	case PredNotContains:
		return "does not contain"
	case PredEquals:
		return "equals"
	case PredNotEquals:
		return "does not equal"
	case PredOlderThan:
		return "greater than"
	case PredNewerThan:
		return "less than"
	default:
		return "unknown"
	}
}

// temporal reports whether the predicate compares received instants
// rather than text.
func (p Predicate) temporal() bool {
	return p == PredOlderThan || p == PredNewerThan
}

// Combinator aggregates a rule's conditions.
type Combinator int

const (
	CombineAll Combinator = iota // every condition must match
	CombineAny                   // at least one condition must match
)

func (c Combinator) String() string {
	if c == CombineAny {
		return "any"
	}
	return "all"
}

// RelativeWindow is a temporal operand: a count of days or calendar
// months back from the evaluation instant. Exactly one field is set.
type RelativeWindow struct {
	Days   int
	Months int
}

// CutoffFrom resolves the window against now. Month subtraction is
// calendar arithmetic clamped to the last valid day of the target
// month, so one month before March 31 is the last day of February.
func (w RelativeWindow) CutoffFrom(now time.Time) time.Time {
	if w.Months != 0 {
		return subtractMonths(now, w.Months)
	}
	return now.AddDate(0, 0, -w.Days)
}

func subtractMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()-time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Condition binds one field, predicate, and operand. Value carries the
// operand for text predicates, Window for temporal ones. Immutable
// once constructed by the loader.
type Condition struct {
	Field     Field
	Predicate Predicate
	Value     string
	Window    RelativeWindow
}

// Matches evaluates the condition against a message at the supplied
// instant. It returns UnsupportedPredicateError when the
// field/predicate pairing is invalid; the loader rejects such pairings
// up front, so an error here indicates a contract violation.
func (c Condition) Matches(msg message.Message, now time.Time) (bool, error) {
	fn, ok := predicateFuncs[c.Predicate]
	if !ok {
		return false, &UnsupportedPredicateError{Field: c.Field, Predicate: c.Predicate}
	}
	return fn(c, msg, now)
}

// ActionType names one mailbox mutation.
type ActionType int

const (
	ActionMarkRead ActionType = iota
	ActionMarkUnread
	ActionMove
	ActionApplyLabel
)

func (a ActionType) String() string {
	switch a {
	case ActionMarkRead:
		return "Mark as Read"
	case ActionMarkUnread:
		return "Mark as Unread"
	case ActionMove:
		return "Move Message"
	case ActionApplyLabel:
		return "Apply Label"
	default:
		return "unknown"
	}
}

// needsTarget reports whether the action type requires a destination
// mailbox or label name.
func (a ActionType) needsTarget() bool {
	return a == ActionMove || a == ActionApplyLabel
}

// Action is one mailbox mutation queued by a matching rule. Target is
// the destination mailbox or label name for Move and ApplyLabel and
// empty otherwise.
type Action struct {
	Type   ActionType
	Target string
}

// Rule is an immutable combinator over an ordered, non-empty condition
// list plus the ordered, non-empty actions applied on match.
type Rule struct {
	Description string
	Combinator  Combinator
	Conditions  []Condition
	Actions     []Action
}

// Matches reports whether the message satisfies the rule at the
// supplied instant. All short-circuits on the first false condition,
// Any on the first true one.
func (r Rule) Matches(msg message.Message, now time.Time) (bool, error) {
	return r.match(msg, now, Condition.Matches)
}

// match exists so tests can observe short-circuit behavior with a
// recording evaluator.
func (r Rule) match(msg message.Message, now time.Time, eval func(Condition, message.Message, time.Time) (bool, error)) (bool, error) {
	for _, cond := range r.Conditions {
		ok, err := eval(cond, msg, now)
		if err != nil {
			return false, err
		}
		if r.Combinator == CombineAny && ok {
			return true, nil
		}
		if r.Combinator == CombineAll && !ok {
			return false, nil
		}
	}
	return r.Combinator == CombineAll, nil
}

// RuleSet is the ordered list of rules for one processing run.
type RuleSet []Rule
