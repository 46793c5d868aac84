// Package engine evaluates declarative mailbox rules against message
// records. Evaluation is pure: the only inputs are the record, the rule,
// and a clock captured once per call, so evaluators are safe to share
// across goroutines.
package engine

import (
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/vintas/mailman/internal/mail"
	"github.com/vintas/mailman/internal/rules"
)

// Evaluator decides whether a record matches a rule.
type Evaluator struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

// NewEvaluator constructs an evaluator with the given logger.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{Logger: logger, Clock: time.Now}
}

// Evaluate reports whether rec matches r. A rule with no conditions
// matches nothing. Malformed or erroring conditions count as false and
// never abort evaluation of their siblings.
func (e *Evaluator) Evaluate(rec mail.Record, r rules.Rule) bool {
	if len(r.Conditions) == 0 {
		e.Logger.Warn("rule has no conditions, treating as no match", "rule", r.Description)
		return false
	}
	now := e.Clock()

	results := make([]bool, 0, len(r.Conditions))
	for _, cond := range r.Conditions {
		results = append(results, e.evalCondition(rec, r, cond, now))
	}

	switch strings.ToLower(strings.TrimSpace(r.ConditionsPredicate)) {
	case rules.MatchAny:
		for _, ok := range results {
			if ok {
				return true
			}
		}
		return false
	case rules.MatchAll, "":
	default:
		e.Logger.Warn("unknown conditions predicate, falling back to all",
			"rule", r.Description, "predicate", r.ConditionsPredicate)
	}
	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

// evalCondition resolves one condition to a boolean. Typed evaluation
// errors are demoted to false here so they stay local to the condition.
func (e *Evaluator) evalCondition(rec mail.Record, r rules.Rule, cond rules.Condition, now time.Time) bool {
	if !cond.WellFormed() {
		e.Logger.Warn("skipping malformed condition",
			"rule", r.Description, "field", cond.Field, "predicate", cond.Predicate)
		return false
	}
	ok, err := checkCondition(rec, cond, now)
	if err != nil {
		e.Logger.Warn("condition failed, counting as no match",
			"rule", r.Description, "message", rec.ID, "field", cond.Field, "error", err)
		return false
	}
	return ok
}

// checkCondition is the fallible core of condition evaluation.
func checkCondition(rec mail.Record, cond rules.Condition, now time.Time) (bool, error) {
	field, err := ResolveField(cond.Field)
	if err != nil {
		return false, err
	}
	pred, err := ResolvePredicate(cond.Predicate)
	if err != nil {
		return false, err
	}
	value := *cond.Value

	switch field.Kind() {
	case KindTime:
		if rec.ReceivedAt.IsZero() {
			return false, fmt.Errorf("%w: message %s has no received time", ErrInvalidConditionValue, rec.ID)
		}
		return matchTime(pred, rec.ReceivedAt, value, now)
	case KindAddressList:
		return matchAddressList(pred, addressList(rec, field), value)
	default:
		return matchString(pred, stringValue(rec, field), value)
	}
}

// matchAddressList quantifies a string predicate over the parsed list
// elements: positive predicates existentially, negated ones universally.
// "to does_not_contain X" must hold for every recipient.
func matchAddressList(pred Predicate, elements []string, value string) (bool, error) {
	if !pred.isString() {
		return false, fmt.Errorf("%w: %s on address list", ErrUnsupportedPredicate, pred)
	}
	if pred.isNegated() {
		for _, el := range elements {
			hit, err := matchString(pred.positive(), bareAddress(el), value)
			if err != nil {
				return false, err
			}
			if hit {
				return false, nil
			}
		}
		return true, nil
	}
	for _, el := range elements {
		hit, err := matchString(pred, bareAddress(el), value)
		if err != nil {
			return false, err
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}

func stringValue(rec mail.Record, field Field) string {
	switch field {
	case FieldFromAddress:
		return bareAddress(rec.From)
	case FieldSubject:
		return rec.Subject
	default:
		return rec.BodyPlain
	}
}

func addressList(rec mail.Record, field Field) []string {
	switch field {
	case FieldToAddresses:
		return rec.To
	case FieldCcAddresses:
		return rec.Cc
	default:
		return rec.Bcc
	}
}

// bareAddress strips an optional display name from a raw header value.
// If the value does not parse as an address the raw string is used.
func bareAddress(raw string) string {
	addr, err := netmail.ParseAddress(raw)
	if err != nil || addr.Address == "" {
		return raw
	}
	return addr.Address
}
