// Package labels resolves human label names to provider-assigned IDs,
// caching both hits and misses so a name is looked up remotely at most
// once per process.
package labels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vintas/mailman/internal/mail"
)

// Lister is the label surface of the mailbox client the resolver needs.
type Lister interface {
	ListLabels(ctx context.Context) (map[string]mail.LabelID, map[mail.LabelID]string, error)
}

// systemLabels are Gmail's well-known names; their IDs equal their names
// and never need a remote call. Keys are lowercase.
var systemLabels = map[string]mail.LabelID{
	"inbox":               "INBOX",
	"unread":              "UNREAD",
	"important":           "IMPORTANT",
	"sent":                "SENT",
	"draft":               "DRAFT",
	"trash":               "TRASH",
	"spam":                "SPAM",
	"starred":             "STARRED",
	"category_personal":   "CATEGORY_PERSONAL",
	"category_social":     "CATEGORY_SOCIAL",
	"category_promotions": "CATEGORY_PROMOTIONS",
	"category_updates":    "CATEGORY_UPDATES",
	"category_forums":     "CATEGORY_FORUMS",
}

type entry struct {
	id mail.LabelID
	ok bool
}

// Resolver caches name to ID lookups over a label lister.
type Resolver struct {
	lister Lister
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]entry
}

// NewResolver builds a resolver pre-seeded with the system labels.
func NewResolver(lister Lister, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cache := make(map[string]entry, len(systemLabels))
	for name, id := range systemLabels {
		cache[name] = entry{id: id, ok: true}
	}
	return &Resolver{lister: lister, logger: logger, cache: cache}
}

// Resolve returns the label ID for name. Unknown names are cached
// negatively so a repeated miss costs no further remote calls.
func (r *Resolver) Resolve(ctx context.Context, name string) (mail.LabelID, bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, cached := r.cache[key]; cached {
		return e.id, e.ok, nil
	}

	byName, _, err := r.lister.ListLabels(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list labels for %q: %w", name, err)
	}
	// fold the whole listing into the cache while we have it
	for listed, id := range byName {
		r.cache[strings.ToLower(listed)] = entry{id: id, ok: true}
	}
	if e, found := r.cache[key]; found {
		return e.id, e.ok, nil
	}

	r.logger.Debug("label not found, caching miss", "label", name)
	r.cache[key] = entry{}
	return "", false, nil
}
