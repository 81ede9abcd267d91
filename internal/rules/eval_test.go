package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/joshsymonds/mailtriage/internal/message"
)

func TestTextPredicates(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	msg := message.Message{
		ID:         "msg-1",
		From:       "News <digest@updates.example.com>",
		Subject:    "PROMO CODE",
		Body:       "Your weekly digest.",
		ReceivedAt: now.AddDate(0, 0, -1),
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains-case-insensitive", Condition{Field: FieldSubject, Predicate: PredContains, Value: "promo"}, true},
		{"contains-miss", Condition{Field: FieldSubject, Predicate: PredContains, Value: "invoice"}, false},
		{"not-contains", Condition{Field: FieldBody, Predicate: PredNotContains, Value: "unsubscribe"}, true},
		{"equals-case-insensitive", Condition{Field: FieldSubject, Predicate: PredEquals, Value: "promo code"}, true},
		{"equals-partial-is-not-equal", Condition{Field: FieldSubject, Predicate: PredEquals, Value: "promo"}, false},
		{"not-equals", Condition{Field: FieldFrom, Predicate: PredNotEquals, Value: "boss@example.com"}, true},
		{"from-contains-address", Condition{Field: FieldFrom, Predicate: PredContains, Value: "updates.example.com"}, true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cond.Matches(msg, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqualsEmptyOperand(t *testing.T) {
	now := time.Now().UTC()
	cond := Condition{Field: FieldSubject, Predicate: PredEquals, Value: ""}

	empty := message.Message{ID: "a", ReceivedAt: now}
	got, err := cond.Matches(empty, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatal("empty operand should match an absent subject")
	}

	nonEmpty := message.Message{ID: "b", Subject: "hello", ReceivedAt: now}
	got, err = cond.Matches(nonEmpty, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatal("empty operand must not match a non-empty subject")
	}
}

func TestTemporalPredicates(t *testing.T) {
	// Leap year: one month before March 31 is February 29.
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	window := RelativeWindow{Months: 1}

	tests := []struct {
		name     string
		pred     Predicate
		received time.Time
		want     bool
	}{
		{"older-than-before-cutoff", PredOlderThan, time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC), true},
		{"older-than-after-cutoff", PredOlderThan, time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), false},
		{"older-than-exact-cutoff", PredOlderThan, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), false},
		{"newer-than-after-cutoff", PredNewerThan, time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), true},
		{"newer-than-before-cutoff", PredNewerThan, time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC), false},
		{"newer-than-exact-cutoff", PredNewerThan, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			cond := Condition{Field: FieldReceivedAt, Predicate: tc.pred, Window: window}
			msg := message.Message{ID: "m", ReceivedAt: tc.received}
			got, err := cond.Matches(msg, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInvalidPairingsSurfaceErrors(t *testing.T) {
	now := time.Now().UTC()
	msg := message.Message{ID: "m", Subject: "x", ReceivedAt: now}

	tests := []struct {
		name string
		cond Condition
	}{
		{"temporal-on-text-field", Condition{Field: FieldSubject, Predicate: PredOlderThan, Window: RelativeWindow{Days: 1}}},
		{"text-on-temporal-field", Condition{Field: FieldReceivedAt, Predicate: PredContains, Value: "x"}},
		{"negated-contains-on-temporal-field", Condition{Field: FieldReceivedAt, Predicate: PredNotContains, Value: "x"}},
		{"negated-equals-on-temporal-field", Condition{Field: FieldReceivedAt, Predicate: PredNotEquals, Value: "x"}},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cond.Matches(msg, now)
			var upe *UnsupportedPredicateError
			if !errors.As(err, &upe) {
				t.Fatalf("expected UnsupportedPredicateError, got %v", err)
			}
			if got {
				t.Fatal("a failed evaluation must never report a match")
			}
		})
	}
}
