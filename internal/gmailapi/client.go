// Package gmailapi adapts *gmail.Service to the narrow client surface
// the rest of mailman works against.
package gmailapi

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	"github.com/vintas/mailman/internal/mail"
)

type googleClient struct{ svc *gmail.Service }

// NewClient wraps an authorized Gmail service.
func NewClient(svc *gmail.Service) mail.Client { return &googleClient{svc: svc} }

func (g *googleClient) List(ctx context.Context, q mail.Query, pageToken string, pageSize int64) (mail.ListPage, error) {
	call := g.svc.Users.Messages.List("me").MaxResults(pageSize)
	if q.Raw != "" {
		call = call.Q(q.Raw)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return mail.ListPage{}, fmt.Errorf("list messages: %w", err)
	}
	page := mail.ListPage{NextToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, mail.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) Get(ctx context.Context, id mail.MessageID) (mail.Record, error) {
	msg, err := g.svc.Users.Messages.Get("me", string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return mail.Record{}, fmt.Errorf("get message %s: %w", id, err)
	}
	return recordFromMessage(msg)
}

func (g *googleClient) ModifyLabels(ctx context.Context, intent mail.MutationIntent) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    toStrings(intent.Add),
		RemoveLabelIds: toStrings(intent.Remove),
	}
	_, err := g.svc.Users.Messages.Modify("me", string(intent.Message), req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("modify labels for %s: %w", intent.Message, err)
	}
	return nil
}

func (g *googleClient) ListLabels(ctx context.Context) (map[string]mail.LabelID, map[mail.LabelID]string, error) {
	res, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list labels: %w", err)
	}
	byName := make(map[string]mail.LabelID, len(res.Labels))
	byID := make(map[mail.LabelID]string, len(res.Labels))
	for _, l := range res.Labels {
		byName[l.Name] = mail.LabelID(l.Id)
		byID[mail.LabelID(l.Id)] = l.Name
	}
	return byName, byID, nil
}

func toStrings(ids []mail.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
