package oauth

import (
	"net/url"
	"strings"
)

// AuthorizationRequest carries the parameters for one authorization round
// trip. It is ephemeral: nothing here is persisted, and correlating the
// returned state with the one sent belongs to the caller's session layer.
type AuthorizationRequest struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	// State is a caller-supplied unguessable CSRF token. The builder does not
	// generate it; state correlation is session handling, not token handling.
	State string
	Actor Actor
}

// AuthorizationURL builds the consent URL the end user is redirected to.
// No network call is made.
func AuthorizationURL(endpoint Endpoint, req AuthorizationRequest) (string, error) {
	if req.ClientID == "" {
		return "", &ConfigurationError{Reason: "client id is empty"}
	}
	if req.RedirectURI == "" {
		return "", &ConfigurationError{Reason: "redirect URI is empty"}
	}
	if len(req.Scopes) == 0 {
		return "", &ConfigurationError{Reason: "at least one scope is required"}
	}
	if req.State == "" {
		return "", &ConfigurationError{Reason: "state is empty"}
	}

	actor := req.Actor
	if actor == "" {
		actor = ActorUser
	}

	params := url.Values{
		"client_id":     {req.ClientID},
		"redirect_uri":  {req.RedirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(req.Scopes, " ")},
		"state":         {req.State},
		"actor":         {string(actor)},
	}
	return endpoint.AuthURL + "?" + params.Encode(), nil
}

// AuthorizationURL builds the consent URL using the manager's client id and
// redirect URI.
func (m *Manager) AuthorizationURL(scopes []string, state string, actor Actor) (string, error) {
	return AuthorizationURL(m.endpoint, AuthorizationRequest{
		ClientID:    m.clientID,
		RedirectURI: m.redirectURI,
		Scopes:      scopes,
		State:       state,
		Actor:       actor,
	})
}
