// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	gmailapi "google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/mailtriage/internal/gmail"
)

// NewGmailSource authenticates with read-only scope: enough for the
// mirror pass, which never mutates the mailbox.
func NewGmailSource(ctx context.Context, cfgDir string) (gc.Source, error) {
	return newClient(ctx, cfgDir, gmailapi.GmailReadonlyScope)
}

// NewGmailActuator authenticates with modify scope so matched rules
// can mutate mailbox state.
func NewGmailActuator(ctx context.Context, cfgDir string) (gc.Actuator, error) {
	return newClient(ctx, cfgDir, gmailapi.GmailModifyScope)
}

// newClient runs the localcred flow against credentials stored in
// cfgDir. localcred chooses scopes based on what the binary requests
// on first run.
func newClient(ctx context.Context, cfgDir, scope string) (gc.Client, error) {
	svc, err := (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, scope)
	if err != nil {
		return nil, fmt.Errorf("authenticate against gmail: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
