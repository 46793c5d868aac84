// Package rules models the declarative mailbox rules and loads them from
// their persisted JSON form.
package rules

// Conditions predicates accepted in a rule definition.
const (
	MatchAll = "all"
	MatchAny = "any"
)

// Action types understood by the planner. The set is open: unknown types
// are skipped at planning time, never rejected at load time.
const (
	ActionMarkAsRead   = "mark_as_read"
	ActionMarkAsUnread = "mark_as_unread"
	ActionMoveMessage  = "move_message"
	ActionAddLabel     = "add_label"
)

// MailboxArchive is the move_message target that means "remove from inbox
// without filing anywhere". Compared case-insensitively.
const MailboxArchive = "ARCHIVE"

// Rule is one declarative match-and-act specification.
type Rule struct {
	Description         string      `json:"description"`
	ConditionsPredicate string      `json:"conditions_predicate,omitempty"`
	Conditions          []Condition `json:"conditions"`
	Actions             []Action    `json:"actions"`
}

// Condition is a single field/predicate/value test. Value is a pointer so
// an absent value can be told apart from an explicit empty string.
type Condition struct {
	Field     string  `json:"field"`
	Predicate string  `json:"predicate"`
	Value     *string `json:"value"`
}

// WellFormed reports whether the condition carries everything evaluation
// needs. An empty string value is valid; a missing one is not.
func (c Condition) WellFormed() bool {
	return c.Field != "" && c.Predicate != "" && c.Value != nil
}

// Action is one rule action with its type-specific parameters.
type Action struct {
	Type      string `json:"type"`
	Mailbox   string `json:"mailbox,omitempty"`
	LabelName string `json:"label_name,omitempty"`
}
