package mail

import "context"

// Client is the narrow Gmail surface mailman needs.
type Client interface {
	List(ctx context.Context, q Query, pageToken string, pageSize int64) (ListPage, error)
	Get(ctx context.Context, id MessageID) (Record, error)
	ModifyLabels(ctx context.Context, intent MutationIntent) error
	ListLabels(ctx context.Context) (map[string]LabelID, map[LabelID]string, error)
}
