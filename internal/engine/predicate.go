package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Predicate is a recognized condition predicate.
type Predicate int

const (
	PredContains Predicate = iota
	PredDoesNotContain
	PredEquals
	PredDoesNotEqual
	PredLessThanDays
	PredGreaterThanDays
	PredLessThanMonths
	PredGreaterThanMonths
)

var predicateNames = map[string]Predicate{
	"contains":            PredContains,
	"does_not_contain":    PredDoesNotContain,
	"equals":              PredEquals,
	"does_not_equal":      PredDoesNotEqual,
	"less_than_days":      PredLessThanDays,
	"greater_than_days":   PredGreaterThanDays,
	"less_than_months":    PredLessThanMonths,
	"greater_than_months": PredGreaterThanMonths,
}

// ResolvePredicate maps a rule's predicate name to its canonical form.
func ResolvePredicate(name string) (Predicate, error) {
	if p, ok := predicateNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPredicate, name)
}

func (p Predicate) String() string {
	for name, pred := range predicateNames {
		if pred == p {
			return name
		}
	}
	return fmt.Sprintf("predicate(%d)", int(p))
}

// isString reports whether p compares normalized strings.
func (p Predicate) isString() bool {
	switch p {
	case PredContains, PredDoesNotContain, PredEquals, PredDoesNotEqual:
		return true
	default:
		return false
	}
}

// isNegated reports whether p is the negated form of a string predicate.
// Negated predicates quantify universally over list fields.
func (p Predicate) isNegated() bool {
	return p == PredDoesNotContain || p == PredDoesNotEqual
}

// positive returns the non-negated form of a string predicate.
func (p Predicate) positive() Predicate {
	switch p {
	case PredDoesNotContain:
		return PredContains
	case PredDoesNotEqual:
		return PredEquals
	default:
		return p
	}
}

// normalize lowercases and trims a value before comparison. Applied to
// both sides of every string predicate.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchString applies a string predicate to one record value.
func matchString(p Predicate, recordValue, ruleValue string) (bool, error) {
	rec := normalize(recordValue)
	rule := normalize(ruleValue)
	switch p {
	case PredContains:
		return strings.Contains(rec, rule), nil
	case PredDoesNotContain:
		return !strings.Contains(rec, rule), nil
	case PredEquals:
		return rec == rule, nil
	case PredDoesNotEqual:
		return rec != rule, nil
	default:
		return false, fmt.Errorf("%w: %s on string value", ErrUnsupportedPredicate, p)
	}
}

// matchTime applies a date predicate to the record timestamp. Timestamps
// are normalized to UTC; a zone-less timestamp is taken as already UTC.
// All comparisons are strict, so an instant exactly N days old satisfies
// neither less_than_days(N) nor greater_than_days(N).
func matchTime(p Predicate, ts time.Time, ruleValue string, now time.Time) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(ruleValue))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not an integer", ErrInvalidConditionValue, ruleValue)
	}
	ts = ts.UTC()
	now = now.UTC()
	switch p {
	case PredLessThanDays:
		return ts.After(now.AddDate(0, 0, -n)), nil
	case PredGreaterThanDays:
		return ts.Before(now.AddDate(0, 0, -n)), nil
	case PredLessThanMonths:
		return ts.After(monthsBefore(now, n)), nil
	case PredGreaterThanMonths:
		return ts.Before(monthsBefore(now, n)), nil
	default:
		return false, fmt.Errorf("%w: %s on date value", ErrUnsupportedPredicate, p)
	}
}

// monthsBefore subtracts n calendar months, clamping the day to the last
// day of the target month. Mar 31 minus one month is Feb 28 (or 29), not
// the day-overflow result time.AddDate would give.
func monthsBefore(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	first := time.Date(year, month-time.Month(n), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
