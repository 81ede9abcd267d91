package rules

import (
	"strings"
	"time"

	"github.com/joshsymonds/mailtriage/internal/message"
)

// predicateFunc evaluates one condition against a message. now is
// captured once per processing pass by the caller, so every temporal
// comparison in a pass shares the same reference instant.
type predicateFunc func(c Condition, msg message.Message, now time.Time) (bool, error)

// predicateFuncs is the single dispatch table for the closed predicate
// vocabulary.
var predicateFuncs = map[Predicate]predicateFunc{
	PredContains:    evalContains,
	PredNotContains: evalNotContains,
	PredEquals:      evalEquals,
	PredNotEquals:   evalNotEquals,
	PredOlderThan:   evalOlderThan,
	PredNewerThan:   evalNewerThan,
}

// textValue extracts the comparison text for a condition's field. A
// missing attribute reads as the empty string.
func textValue(c Condition, msg message.Message) (string, error) {
	switch c.Field {
	case FieldFrom:
		return msg.From, nil
	case FieldSubject:
		return msg.Subject, nil
	case FieldBody:
		return msg.Body, nil
	default:
		return "", &UnsupportedPredicateError{Field: c.Field, Predicate: c.Predicate}
	}
}

func evalContains(c Condition, msg message.Message, _ time.Time) (bool, error) {
	actual, err := textValue(c, msg)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value)), nil
}

func evalNotContains(c Condition, msg message.Message, now time.Time) (bool, error) {
	ok, err := evalContains(c, msg, now)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func evalEquals(c Condition, msg message.Message, _ time.Time) (bool, error) {
	actual, err := textValue(c, msg)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, c.Value), nil
}

func evalNotEquals(c Condition, msg message.Message, now time.Time) (bool, error) {
	ok, err := evalEquals(c, msg, now)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func evalOlderThan(c Condition, msg message.Message, now time.Time) (bool, error) {
	if c.Field != FieldReceivedAt {
		return false, &UnsupportedPredicateError{Field: c.Field, Predicate: c.Predicate}
	}
	return msg.ReceivedAt.Before(c.Window.CutoffFrom(now)), nil
}

func evalNewerThan(c Condition, msg message.Message, now time.Time) (bool, error) {
	if c.Field != FieldReceivedAt {
		return false, &UnsupportedPredicateError{Field: c.Field, Predicate: c.Predicate}
	}
	return msg.ReceivedAt.After(c.Window.CutoffFrom(now)), nil
}
