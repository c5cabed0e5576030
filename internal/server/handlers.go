package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/florianilch/linear-go/oauth"
)

// handleAuthorize issues a fresh CSRF state and redirects the user to the
// provider's consent page.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	s.states.Issue(state)

	authURL, err := s.manager.AuthorizationURL(s.scopes, state, s.actor)
	if err != nil {
		writeJSONError(r.Context(), w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// callbackResponse is returned after a successful code exchange. It carries
// no token material.
type callbackResponse struct {
	Principal string    `json:"principal"`
	TokenType string    `json:"token_type"`
	Scope     string    `json:"scope,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// handleCallback verifies the returned state, exchanges the authorization
// code, and reports the resulting session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	// The provider reports consent errors on the redirect itself.
	if errCode := query.Get("error"); errCode != "" {
		msg := errCode
		if desc := query.Get("error_description"); desc != "" {
			msg += ": " + desc
		}
		writeJSONError(ctx, w, msg, http.StatusBadRequest)
		return
	}

	if !s.states.Consume(query.Get("state")) {
		writeJSONError(ctx, w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeJSONError(ctx, w, "missing authorization code", http.StatusBadRequest)
		return
	}

	record, err := s.manager.ExchangeCode(ctx, s.principalID, code)
	if err != nil {
		var exchangeErr *oauth.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			writeJSONError(ctx, w, exchangeErr.Error(), http.StatusBadRequest)
			return
		}
		writeJSONError(ctx, w, "token exchange failed", http.StatusBadGateway)
		return
	}

	writeJSON(ctx, w, callbackResponse{
		Principal: record.PrincipalID,
		TokenType: record.TokenType,
		Scope:     record.Scope,
		ExpiresAt: record.ExpiresAt(),
	}, http.StatusOK)
}

// revokeResponse reports the outcome of a sign-out. The local record is gone
// either way; Revoked reflects only the provider's confirmation.
type revokeResponse struct {
	Revoked bool `json:"revoked"`
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	confirmed, err := s.manager.Revoke(ctx, s.principalID)
	if err != nil {
		writeJSONError(ctx, w, "revoke failed", http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, revokeResponse{Revoked: confirmed}, http.StatusOK)
}
