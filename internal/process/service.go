// Package process runs the evaluation pass: every stored message
// against every loaded rule, dispatching matched actions in order.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	gc "github.com/joshsymonds/mailtriage/internal/gmail"
	"github.com/joshsymonds/mailtriage/internal/message"
	"github.com/joshsymonds/mailtriage/internal/rules"
)

// MessageSource yields the stored messages for one pass.
type MessageSource interface {
	ForEach(ctx context.Context, handler func(message.Message) error) error
}

// Spec describes one evaluation pass.
type Spec struct {
	Rules rules.RuleSet
	// DryRun logs matches without calling the actuator.
	DryRun bool
	// KeepGoing runs the remaining actions of a rule after one of
	// them fails; the default stops that rule's action list.
	KeepGoing bool
}

// Summary reports what one pass did.
type Summary struct {
	Messages int
	Matched  int // rule matches, counted per message+rule pair
	Actions  int // actuator calls that succeeded
	Failures int // actuator calls that failed
}

// Service evaluates rules against stored messages and drives the
// actuator. Evaluation is single-threaded: rule order per message and
// action order per rule are significant and preserved.
type Service struct {
	Source   MessageSource
	Actuator gc.Actuator
	Log      *slog.Logger
	Limiter  *rate.Limiter
	Clock    func() time.Time
}

// NewService wires an evaluation pass over the given collaborators.
func NewService(source MessageSource, actuator gc.Actuator, limiter *rate.Limiter, log *slog.Logger) *Service {
	return &Service{
		Source:   source,
		Actuator: actuator,
		Log:      log,
		Limiter:  limiter,
		Clock:    time.Now,
	}
}

// Run evaluates every rule in document order against every stored
// message. One instant is captured up front and reused for every
// temporal comparison, so a long pass stays self-consistent. Actuator
// failures are counted in the summary, not returned; an evaluation
// error aborts the pass since it indicates a broken rule set.
func (s *Service) Run(ctx context.Context, spec Spec) (Summary, error) {
	now := s.Clock().UTC()
	var sum Summary

	err := s.Source.ForEach(ctx, func(msg message.Message) error {
		sum.Messages++
		for _, rule := range spec.Rules {
			matched, err := rule.Matches(msg, now)
			if err != nil {
				return fmt.Errorf("evaluate rule %q against %s: %w", rule.Description, msg.ID, err)
			}
			if !matched {
				continue
			}
			sum.Matched++
			s.Log.Info("rule matched", "rule", rule.Description, "message", msg.ID, "subject", msg.Subject)
			if spec.DryRun {
				continue
			}
			applied, failed := s.applyActions(ctx, msg.ID, rule, spec.KeepGoing)
			sum.Actions += applied
			sum.Failures += failed
		}
		return ctx.Err()
	})
	if err != nil {
		return sum, err
	}
	return sum, nil
}

// applyActions dispatches the matched rule's action list strictly in
// order, never reordering or deduplicating. Per-action failures are
// logged with the action and message attached; whether the rest of the
// list still runs is the caller's policy.
func (s *Service) applyActions(ctx context.Context, id message.ID, rule rules.Rule, keepGoing bool) (applied, failed int) {
	for _, action := range rule.Actions {
		if err := s.dispatch(ctx, id, action); err != nil {
			failed++
			s.Log.Error("action failed",
				"rule", rule.Description, "action", action.Type.String(),
				"target", action.Target, "message", id, "error", err)
			if !keepGoing {
				return applied, failed
			}
			continue
		}
		applied++
	}
	return applied, failed
}

// actionFunc applies one action kind through the actuator.
type actionFunc func(ctx context.Context, act gc.Actuator, id gc.MessageID, a rules.Action) error

// actionFuncs maps each action type to exactly one actuator call.
var actionFuncs = map[rules.ActionType]actionFunc{
	rules.ActionMarkRead: func(ctx context.Context, act gc.Actuator, id gc.MessageID, _ rules.Action) error {
		return act.SetReadState(ctx, id, true)
	},
	rules.ActionMarkUnread: func(ctx context.Context, act gc.Actuator, id gc.MessageID, _ rules.Action) error {
		return act.SetReadState(ctx, id, false)
	},
	rules.ActionMove: func(ctx context.Context, act gc.Actuator, id gc.MessageID, a rules.Action) error {
		return act.Move(ctx, id, a.Target)
	},
	rules.ActionApplyLabel: func(ctx context.Context, act gc.Actuator, id gc.MessageID, a rules.Action) error {
		return act.ApplyLabel(ctx, id, a.Target)
	},
}

func (s *Service) dispatch(ctx context.Context, id message.ID, action rules.Action) error {
	fn, ok := actionFuncs[action.Type]
	if !ok {
		return fmt.Errorf("no dispatch for action type %q", action.Type)
	}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, s.Actuator, gc.MessageID(id), action)
}
