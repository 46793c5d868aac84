package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vintas/mailman/internal/mail"
	"github.com/vintas/mailman/internal/rules"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvaluator(now time.Time) *Evaluator {
	ev := NewEvaluator(slogDiscard())
	ev.Clock = func() time.Time { return now }
	return ev
}

func strptr(s string) *string { return &s }

func cond(field, predicate, value string) rules.Condition {
	return rules.Condition{Field: field, Predicate: predicate, Value: strptr(value)}
}

func TestEvaluateScenarios(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	interview := mail.Record{
		ID:         "msg-1",
		From:       "HR Team <hr@tenmiles.com>",
		Subject:    "Your Interview Schedule",
		BodyPlain:  "Details about your upcoming interview.",
		ReceivedAt: now.Add(-24 * time.Hour),
	}
	multiRecipient := mail.Record{
		ID: "msg-2",
		To: []string{"user1@test.com", "user2@example.com"},
	}

	tests := []struct {
		name string
		rec  mail.Record
		rule rules.Rule
		want bool
	}{
		{
			name: "all-conditions-hold",
			rec:  interview,
			rule: rules.Rule{
				Description:         "interview mail",
				ConditionsPredicate: rules.MatchAll,
				Conditions: []rules.Condition{
					cond("from_address", "contains", "tenmiles.com"),
					cond("subject", "contains", "Interview"),
					cond("received_datetime", "less_than_days", "2"),
				},
			},
			want: true,
		},
		{
			name: "one-condition-fails-under-all",
			rec:  interview,
			rule: rules.Rule{
				ConditionsPredicate: rules.MatchAll,
				Conditions: []rules.Condition{
					cond("from_address", "contains", "tenmiles.com"),
					cond("subject", "contains", "Python Job"),
				},
			},
			want: false,
		},
		{
			name: "any-matches-on-second",
			rec:  interview,
			rule: rules.Rule{
				ConditionsPredicate: rules.MatchAny,
				Conditions: []rules.Condition{
					cond("subject", "contains", "Python Job"),
					cond("from_address", "equals", "hr@tenmiles.com"),
				},
			},
			want: true,
		},
		{
			name: "predicate-name-case-insensitive",
			rec:  interview,
			rule: rules.Rule{
				ConditionsPredicate: "ANY",
				Conditions: []rules.Condition{
					cond("subject", "contains", "Python Job"),
					cond("subject", "contains", "Interview"),
				},
			},
			want: true,
		},
		{
			name: "to-does-not-equal-with-matching-element",
			rec:  multiRecipient,
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("to_addresses", "does_not_equal", "user1@test.com"),
				},
			},
			want: false,
		},
		{
			name: "to-does-not-equal-without-matching-element",
			rec:  multiRecipient,
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("to_addresses", "does_not_equal", "nonexistent@example.com"),
				},
			},
			want: true,
		},
		{
			name: "to-equals-any-element",
			rec:  multiRecipient,
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("to_addresses", "equals", "user2@example.com"),
				},
			},
			want: true,
		},
		{
			name: "to-contains-domain",
			rec: mail.Record{
				ID: "msg-3",
				To: []string{"Candidate <candidate@example.com>", "manager@tenmiles.com"},
			},
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("To", "contains", "tenmiles.com"),
				},
			},
			want: true,
		},
		{
			name: "from-display-name-is-stripped",
			rec:  interview,
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("from", "equals", "hr@tenmiles.com"),
				},
			},
			want: true,
		},
		{
			name: "message-alias-matches-body",
			rec:  interview,
			rule: rules.Rule{
				Conditions: []rules.Condition{
					cond("message", "contains", "upcoming interview"),
				},
			},
			want: true,
		},
	}

	ev := testEvaluator(now)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ev.Evaluate(tc.rec, tc.rule); got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateEmptyConditions(t *testing.T) {
	ev := testEvaluator(time.Now())
	rec := mail.Record{ID: "m", Subject: "anything"}
	for _, pred := range []string{rules.MatchAll, rules.MatchAny, ""} {
		r := rules.Rule{Description: "empty", ConditionsPredicate: pred}
		if ev.Evaluate(rec, r) {
			t.Fatalf("empty rule matched under predicate %q", pred)
		}
	}
}

func TestEvaluateUnknownConditionsPredicateFallsBackToAll(t *testing.T) {
	ev := testEvaluator(time.Now())
	rec := mail.Record{ID: "m", Subject: "hello world"}
	r := rules.Rule{
		ConditionsPredicate: "some",
		Conditions: []rules.Condition{
			cond("subject", "contains", "hello"),
			cond("subject", "contains", "absent"),
		},
	}
	if ev.Evaluate(rec, r) {
		t.Fatal("unknown predicate should behave like all, one condition fails")
	}
}

func TestEvaluateDegradesGracefully(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	ev := testEvaluator(now)
	rec := mail.Record{
		ID:         "m",
		Subject:    "quarterly report",
		To:         []string{"a@example.com"},
		ReceivedAt: now.Add(-time.Hour),
	}

	tests := []struct {
		name string
		bad  rules.Condition
	}{
		{"unknown-field", cond("x-priority", "equals", "1")},
		{"unknown-predicate", cond("subject", "matches_regex", ".*")},
		{"date-predicate-on-string", cond("subject", "less_than_days", "2")},
		{"string-predicate-on-date", cond("received_datetime", "contains", "2024")},
		{"date-predicate-on-list", cond("to_addresses", "greater_than_days", "1")},
		{"non-numeric-date-value", cond("received_datetime", "less_than_days", "soon")},
		{"missing-value", rules.Condition{Field: "subject", Predicate: "equals"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// bad condition counts as false: ALL fails, ANY still passes
			// via the good condition, and nothing panics or aborts.
			all := rules.Rule{
				ConditionsPredicate: rules.MatchAll,
				Conditions:          []rules.Condition{cond("subject", "contains", "report"), tc.bad},
			}
			if ev.Evaluate(rec, all) {
				t.Fatal("rule with failing condition matched under all")
			}
			anyRule := rules.Rule{
				ConditionsPredicate: rules.MatchAny,
				Conditions:          []rules.Condition{tc.bad, cond("subject", "contains", "report")},
			}
			if !ev.Evaluate(rec, anyRule) {
				t.Fatal("sibling condition did not survive failing condition under any")
			}
		})
	}
}

func TestEvaluateMissingReceivedTime(t *testing.T) {
	ev := testEvaluator(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))
	rec := mail.Record{ID: "m", Subject: "hello"}
	// with no received time neither direction can match
	for _, pred := range []string{"less_than_days", "greater_than_days"} {
		r := rules.Rule{Conditions: []rules.Condition{cond("received_datetime", pred, "2")}}
		if ev.Evaluate(rec, r) {
			t.Fatalf("%s matched a record without a received time", pred)
		}
	}
}

func TestEvaluateEmptyAddressList(t *testing.T) {
	ev := testEvaluator(time.Now())
	rec := mail.Record{ID: "m"}
	// vacuous truth for the universal form, false for the existential
	if !ev.Evaluate(rec, rules.Rule{Conditions: []rules.Condition{cond("cc", "does_not_contain", "x")}}) {
		t.Fatal("negated predicate over empty list should hold")
	}
	if ev.Evaluate(rec, rules.Rule{Conditions: []rules.Condition{cond("cc", "contains", "x")}}) {
		t.Fatal("positive predicate over empty list should not hold")
	}
}

func TestBareAddress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"display-name", "HR Team <hr@tenmiles.com>", "hr@tenmiles.com"},
		{"plain", "my_name@gmail.com", "my_name@gmail.com"},
		{"unparseable", "not an address", "not an address"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := bareAddress(tc.raw); got != tc.want {
				t.Fatalf("bareAddress(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
