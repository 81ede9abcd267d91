package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ruleDoc mirrors one entry of the rules.json document.
type ruleDoc struct {
	Description      string         `json:"description"`
	OverallPredicate string         `json:"overall_predicate"`
	Conditions       []conditionDoc `json:"conditions"`
	Actions          []actionDoc    `json:"actions"`
}

type conditionDoc struct {
	Field     string          `json:"field"`
	Predicate string          `json:"predicate"`
	Value     json.RawMessage `json:"value"`
}

type actionDoc struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// windowDoc is the temporal operand shape: exactly one of days/months.
type windowDoc struct {
	Days   *int `json:"days"`
	Months *int `json:"months"`
}

// Vocabulary names are matched case-sensitively as the format defines
// them.
var (
	fieldNames = map[string]Field{
		"From":               FieldFrom,
		"Subject":            FieldSubject,
		"Message":            FieldBody,
		"Received Date/Time": FieldReceivedAt,
	}
	predicateNames = map[string]Predicate{
		"contains":         PredContains,
		"does not contain": PredNotContains,
		"equals":           PredEquals,
		"does not equal":   PredNotEquals,
		"greater than":     PredOlderThan,
		"less than":        PredNewerThan,
	}
	combinatorNames = map[string]Combinator{
		"all": CombineAll,
		"any": CombineAny,
	}
	actionNames = map[string]ActionType{
		"Mark as Read":   ActionMarkRead,
		"Mark as Unread": ActionMarkUnread,
		"Move Message":   ActionMove,
		"Apply Label":    ActionApplyLabel,
	}
)

// Load decodes a rule definition document. Malformed individual rules
// are reported as DefinitionErrors without aborting the rest of the
// set; the returned error covers only an unreadable or syntactically
// invalid document. Condition and action order is preserved exactly.
func Load(r io.Reader) (RuleSet, []*DefinitionError, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read rule definitions: %w", err)
	}
	var docs []ruleDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, nil, fmt.Errorf("decode rule definitions: %w", err)
	}

	set := make(RuleSet, 0, len(docs))
	var rejected []*DefinitionError
	for i, doc := range docs {
		rule, reason := buildRule(doc)
		if reason != "" {
			rejected = append(rejected, &DefinitionError{
				Rule:        i,
				Description: doc.Description,
				Reason:      reason,
			})
			continue
		}
		set = append(set, rule)
	}
	return set, rejected, nil
}

// LoadFile loads rule definitions from a file on disk.
func LoadFile(path string) (RuleSet, []*DefinitionError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open rule definitions: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// buildRule validates one document entry all-or-nothing. A non-empty
// reason rejects the whole entry.
func buildRule(doc ruleDoc) (Rule, string) {
	comb, ok := combinatorNames[doc.OverallPredicate]
	if !ok {
		return Rule{}, fmt.Sprintf("unknown overall_predicate %q", doc.OverallPredicate)
	}
	if len(doc.Conditions) == 0 {
		return Rule{}, "rule has no conditions"
	}
	if len(doc.Actions) == 0 {
		return Rule{}, "rule has no actions"
	}

	conditions := make([]Condition, 0, len(doc.Conditions))
	for i, cd := range doc.Conditions {
		cond, reason := buildCondition(cd)
		if reason != "" {
			return Rule{}, fmt.Sprintf("condition %d: %s", i, reason)
		}
		conditions = append(conditions, cond)
	}

	actions := make([]Action, 0, len(doc.Actions))
	for i, ad := range doc.Actions {
		act, reason := buildAction(ad)
		if reason != "" {
			return Rule{}, fmt.Sprintf("action %d: %s", i, reason)
		}
		actions = append(actions, act)
	}

	return Rule{
		Description: doc.Description,
		Combinator:  comb,
		Conditions:  conditions,
		Actions:     actions,
	}, ""
}

func buildCondition(doc conditionDoc) (Condition, string) {
	field, ok := fieldNames[doc.Field]
	if !ok {
		return Condition{}, fmt.Sprintf("unknown field %q", doc.Field)
	}
	pred, ok := predicateNames[doc.Predicate]
	if !ok {
		return Condition{}, fmt.Sprintf("unknown predicate %q", doc.Predicate)
	}
	// Temporal predicates pair only with the received instant, text
	// predicates only with text fields. Anything else is rejected
	// here rather than interpreted.
	if pred.temporal() != (field == FieldReceivedAt) {
		return Condition{}, fmt.Sprintf("predicate %q is not valid for field %q", doc.Predicate, doc.Field)
	}

	cond := Condition{Field: field, Predicate: pred}
	if pred.temporal() {
		window, reason := parseWindow(doc.Value)
		if reason != "" {
			return Condition{}, reason
		}
		cond.Window = window
		return cond, ""
	}
	if err := json.Unmarshal(doc.Value, &cond.Value); err != nil {
		return Condition{}, fmt.Sprintf("value for predicate %q must be a string", doc.Predicate)
	}
	return cond, ""
}

func parseWindow(raw json.RawMessage) (RelativeWindow, string) {
	var doc windowDoc
	if len(raw) == 0 {
		return RelativeWindow{}, "temporal value is missing"
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return RelativeWindow{}, "temporal value must be an object with days or months"
	}
	switch {
	case doc.Days != nil && doc.Months != nil:
		return RelativeWindow{}, "temporal value must set exactly one of days or months"
	case doc.Days != nil:
		if *doc.Days <= 0 {
			return RelativeWindow{}, "days must be a positive integer"
		}
		return RelativeWindow{Days: *doc.Days}, ""
	case doc.Months != nil:
		if *doc.Months <= 0 {
			return RelativeWindow{}, "months must be a positive integer"
		}
		return RelativeWindow{Months: *doc.Months}, ""
	default:
		return RelativeWindow{}, "temporal value must set one of days or months"
	}
}

func buildAction(doc actionDoc) (Action, string) {
	typ, ok := actionNames[doc.Type]
	if !ok {
		return Action{}, fmt.Sprintf("unknown action type %q", doc.Type)
	}
	if typ.needsTarget() && doc.Value == "" {
		return Action{}, fmt.Sprintf("action %q requires a destination value", doc.Type)
	}
	act := Action{Type: typ}
	if typ.needsTarget() {
		act.Target = doc.Value
	}
	return act, ""
}
