// Package plan turns a matched rule's action list into a single
// deduplicated, conflict-resolved label mutation per message.
package plan

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/vintas/mailman/internal/mail"
	"github.com/vintas/mailman/internal/rules"
)

// Well-known system label IDs referenced by action semantics.
const (
	LabelInbox  mail.LabelID = "INBOX"
	LabelUnread mail.LabelID = "UNREAD"
)

// Resolver maps a human label name to a provider-assigned ID. ok is
// false when the name is unknown; err covers lookup transport failures.
type Resolver interface {
	Resolve(ctx context.Context, name string) (id mail.LabelID, ok bool, err error)
}

// Planner builds mutation intents from rule actions.
type Planner struct {
	Resolver Resolver
	Logger   *slog.Logger
}

// NewPlanner constructs a planner with the given resolver and logger.
func NewPlanner(resolver Resolver, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{Resolver: resolver, Logger: logger}
}

// Plan resolves the actions of one matched rule into a MutationIntent
// for the given message. Unresolvable labels and unknown action types
// are skipped with a diagnostic; they never fail the plan. The second
// return is false when the resulting intent would be a no-op.
func (p *Planner) Plan(ctx context.Context, id mail.MessageID, actions []rules.Action) (mail.MutationIntent, bool) {
	var add, remove []mail.LabelID

	for _, action := range actions {
		switch strings.ToLower(action.Type) {
		case rules.ActionMarkAsRead:
			remove = append(remove, LabelUnread)
		case rules.ActionMarkAsUnread:
			add = append(add, LabelUnread)
		case rules.ActionMoveMessage:
			if action.Mailbox == "" {
				p.Logger.Warn("move_message action missing mailbox, skipping", "message", id)
				continue
			}
			if strings.EqualFold(action.Mailbox, rules.MailboxArchive) {
				// archiving keeps every label except INBOX
				remove = append(remove, LabelInbox)
				continue
			}
			target, ok := p.resolve(ctx, id, action.Mailbox)
			if !ok {
				continue
			}
			add = append(add, target)
			remove = append(remove, LabelInbox)
		case rules.ActionAddLabel:
			if action.LabelName == "" {
				p.Logger.Warn("add_label action missing label_name, skipping", "message", id)
				continue
			}
			if target, ok := p.resolve(ctx, id, action.LabelName); ok {
				add = append(add, target)
			}
		default:
			p.Logger.Warn("unknown action type, skipping", "message", id, "type", action.Type)
		}
	}

	intent := resolveConflicts(id, add, remove)
	return intent, !intent.Empty()
}

func (p *Planner) resolve(ctx context.Context, id mail.MessageID, name string) (mail.LabelID, bool) {
	target, ok, err := p.Resolver.Resolve(ctx, name)
	if err != nil {
		p.Logger.Warn("label lookup failed, skipping action", "message", id, "label", name, "error", err)
		return "", false
	}
	if !ok {
		p.Logger.Warn("label not found, skipping action", "message", id, "label", name)
		return "", false
	}
	return target, true
}

// resolveConflicts deduplicates both sides and settles IDs present in
// both: removal wins, except INBOX where the explicit "move to INBOX"
// add overrides the default leave-the-inbox removal.
func resolveConflicts(id mail.MessageID, add, remove []mail.LabelID) mail.MutationIntent {
	addSet := toSet(add)
	removeSet := toSet(remove)

	for lbl := range addSet {
		if _, both := removeSet[lbl]; !both {
			continue
		}
		if lbl == LabelInbox {
			delete(removeSet, lbl)
		} else {
			delete(addSet, lbl)
		}
	}

	return mail.MutationIntent{
		Message: id,
		Add:     sorted(addSet),
		Remove:  sorted(removeSet),
	}
}

func toSet(ids []mail.LabelID) map[mail.LabelID]struct{} {
	set := make(map[mail.LabelID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sorted(set map[mail.LabelID]struct{}) []mail.LabelID {
	if len(set) == 0 {
		return nil
	}
	out := make([]mail.LabelID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
