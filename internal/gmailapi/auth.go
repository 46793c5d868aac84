package gmailapi

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"google.golang.org/api/gmail/v1"

	"github.com/vintas/mailman/internal/mail"
)

// Scope selects the Gmail OAuth scope to request.
type Scope int

const (
	ScopeReadonly Scope = iota
	ScopeModify
)

// Connect authenticates against Gmail using gmailctl's local credential
// store in cfgDir and returns a ready client.
func Connect(ctx context.Context, cfgDir string, scope Scope) (mail.Client, error) {
	var svc *gmail.Service
	var err error
	switch scope {
	case ScopeReadonly:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailReadonlyScope)
	case ScopeModify:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailModifyScope)
	default:
		return nil, fmt.Errorf("unknown scope %d", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate with gmail: %w", err)
	}
	return NewClient(svc), nil
}

// DefaultLogger is the stderr text logger used by the CLIs.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
