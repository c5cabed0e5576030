package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/linear-go/tokenstore"
)

func validAuthorizationRequest() AuthorizationRequest {
	return AuthorizationRequest{
		ClientID:    "client-1",
		RedirectURI: "http://127.0.0.1:8484/oauth/callback",
		Scopes:      []string{"read", "write", "issues:create"},
		State:       "state-xyz",
		Actor:       ActorUser,
	}
}

func TestAuthorizationURL(t *testing.T) {
	raw, err := AuthorizationURL(DefaultEndpoint, validAuthorizationRequest())
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "linear.app", parsed.Host)
	assert.Equal(t, "/oauth/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8484/oauth/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "read write issues:create", query.Get("scope"))
	assert.Equal(t, "state-xyz", query.Get("state"))
	assert.Equal(t, "user", query.Get("actor"))
}

func TestAuthorizationURLActorDefaultsToUser(t *testing.T) {
	req := validAuthorizationRequest()
	req.Actor = ""

	raw, err := AuthorizationURL(DefaultEndpoint, req)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user", parsed.Query().Get("actor"))
}

func TestAuthorizationURLApplicationActor(t *testing.T) {
	req := validAuthorizationRequest()
	req.Actor = ActorApplication

	raw, err := AuthorizationURL(DefaultEndpoint, req)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "application", parsed.Query().Get("actor"))
}

func TestAuthorizationURLValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AuthorizationRequest)
	}{
		{name: "missing client id", mutate: func(r *AuthorizationRequest) { r.ClientID = "" }},
		{name: "missing redirect uri", mutate: func(r *AuthorizationRequest) { r.RedirectURI = "" }},
		{name: "no scopes", mutate: func(r *AuthorizationRequest) { r.Scopes = nil }},
		{name: "missing state", mutate: func(r *AuthorizationRequest) { r.State = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAuthorizationRequest()
			tt.mutate(&req)

			_, err := AuthorizationURL(DefaultEndpoint, req)

			var configErr *ConfigurationError
			require.ErrorAs(t, err, &configErr)
		})
	}
}

func TestManagerAuthorizationURL(t *testing.T) {
	manager, err := NewManager(Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURI:  "http://127.0.0.1:8484/oauth/callback",
		Store:        tokenstore.NewMemoryStore(),
	})
	require.NoError(t, err)

	raw, err := manager.AuthorizationURL([]string{"read"}, "state-1", ActorUser)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "client-1", parsed.Query().Get("client_id"))
	assert.Equal(t, "read", parsed.Query().Get("scope"))
	assert.Equal(t, "state-1", parsed.Query().Get("state"))
}
