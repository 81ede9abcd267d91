package rules

import (
	"testing"
	"time"

	"github.com/joshsymonds/mailtriage/internal/message"
)

func testMessage() message.Message {
	return message.Message{
		ID:         "msg-1",
		From:       "Alice <alice@example.com>",
		Subject:    "Weekly PROMO CODE inside",
		Body:       "Save big this week only.",
		ReceivedAt: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRuleCombinators(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	msg := testMessage()

	trueCond := Condition{Field: FieldFrom, Predicate: PredContains, Value: "alice"}
	falseCond := Condition{Field: FieldFrom, Predicate: PredContains, Value: "bob"}

	tests := []struct {
		name       string
		combinator Combinator
		conditions []Condition
		want       bool
	}{
		{"all-true", CombineAll, []Condition{trueCond, trueCond}, true},
		{"all-one-false", CombineAll, []Condition{trueCond, falseCond}, false},
		{"any-one-true", CombineAny, []Condition{falseCond, trueCond}, true},
		{"any-all-false", CombineAny, []Condition{falseCond, falseCond}, false},
		{"all-single", CombineAll, []Condition{trueCond}, true},
		{"any-single-false", CombineAny, []Condition{falseCond}, false},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{Combinator: tc.combinator, Conditions: tc.conditions}
			got, err := rule.Matches(msg, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRuleShortCircuit(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	msg := testMessage()

	trueCond := Condition{Field: FieldFrom, Predicate: PredContains, Value: "alice"}
	falseCond := Condition{Field: FieldFrom, Predicate: PredContains, Value: "bob"}

	tests := []struct {
		name       string
		combinator Combinator
		conditions []Condition
		wantEvals  int
	}{
		{"all-stops-at-first-false", CombineAll, []Condition{falseCond, trueCond, trueCond}, 1},
		{"any-stops-at-first-true", CombineAny, []Condition{trueCond, falseCond, falseCond}, 1},
		{"all-evaluates-everything", CombineAll, []Condition{trueCond, trueCond}, 2},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			evals := 0
			recording := func(c Condition, m message.Message, n time.Time) (bool, error) {
				evals++
				return c.Matches(m, n)
			}
			rule := Rule{Combinator: tc.combinator, Conditions: tc.conditions}
			if _, err := rule.match(msg, now, recording); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if evals != tc.wantEvals {
				t.Fatalf("evaluated %d conditions, want %d", evals, tc.wantEvals)
			}
		})
	}
}

func TestRuleEvaluationIsIdempotent(t *testing.T) {
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	msg := testMessage()
	rule := Rule{
		Description: "promo",
		Combinator:  CombineAll,
		Conditions: []Condition{
			{Field: FieldSubject, Predicate: PredContains, Value: "promo"},
			{Field: FieldReceivedAt, Predicate: PredOlderThan, Window: RelativeWindow{Days: 7}},
		},
		Actions: []Action{
			{Type: ActionApplyLabel, Target: "Promotions"},
			{Type: ActionMarkRead},
		},
	}

	first, err := rule.Matches(msg, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := rule.Matches(msg, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("match results differ across evaluations: %v then %v", first, second)
	}
	if len(rule.Actions) != 2 || rule.Actions[0].Type != ActionApplyLabel || rule.Actions[1].Type != ActionMarkRead {
		t.Fatalf("action list changed: %+v", rule.Actions)
	}
}

func TestCutoffFrom(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		window RelativeWindow
		want   time.Time
	}{
		{
			name:   "days",
			now:    time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			window: RelativeWindow{Days: 2},
			want:   time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month-clamps-to-leap-february",
			now:    time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			window: RelativeWindow{Months: 1},
			want:   time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month-clamps-to-regular-february",
			now:    time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC),
			window: RelativeWindow{Months: 1},
			want:   time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month-crosses-year",
			now:    time.Date(2024, time.January, 31, 10, 30, 0, 0, time.UTC),
			window: RelativeWindow{Months: 1},
			want:   time.Date(2023, time.December, 31, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "months-without-clamping",
			now:    time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			window: RelativeWindow{Months: 3},
			want:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got := tc.window.CutoffFrom(tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("CutoffFrom(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
