package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts one principal's lifecycle to oauth2.TokenSource, so the
// manager can sit behind oauth2.Transport.
//
// Token carries no context parameter (legacy interface), so the context is
// captured at construction time per the oauth2 package's convention.
func (m *Manager) TokenSource(ctx context.Context, principalID string) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m, principalID: principalID}
}

type managerTokenSource struct {
	ctx         context.Context
	manager     *Manager
	principalID string
}

// Compile-time check that managerTokenSource implements oauth2.TokenSource.
var _ oauth2.TokenSource = (*managerTokenSource)(nil)

// Token returns a valid access token, refreshing through the manager when
// necessary. Tokens are not cached here: the manager already answers from the
// store without network I/O while the token is outside the refresh threshold.
func (t *managerTokenSource) Token() (*oauth2.Token, error) {
	access, err := t.manager.ValidToken(t.ctx, t.principalID)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
