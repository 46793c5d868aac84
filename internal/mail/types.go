// Package mail holds the domain types shared by the rule engine, the
// action planner, and the Gmail plumbing around them.
package mail

import "time"

type MessageID string
type ThreadID string
type LabelID string

// Record is a stored message with normalized metadata. It is a read-only
// input to rule evaluation: missing values are empty strings or empty
// slices, never absent fields.
type Record struct {
	ID         MessageID
	ThreadID   ThreadID
	From       string // raw header value, may embed a display name
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	BodyPlain  string
	BodyHTML   string
	Snippet    string
	ReceivedAt time.Time
	Labels     []LabelID
	Headers    map[string]string
}

// MutationIntent is the resolved label add/remove set for one message.
// After conflict resolution no ID appears in both slices.
type MutationIntent struct {
	Message MessageID
	Add     []LabelID
	Remove  []LabelID
}

// Empty reports whether applying the intent would be a no-op.
func (m MutationIntent) Empty() bool {
	return len(m.Add) == 0 && len(m.Remove) == 0
}

// Query is a raw Gmail search expression, already formed.
type Query struct {
	Raw string
}

// ListPage is one page of message IDs from a list call.
type ListPage struct {
	IDs       []MessageID
	NextToken string
}
