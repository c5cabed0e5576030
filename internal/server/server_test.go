package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/linear-go/oauth"
	"github.com/florianilch/linear-go/tokenstore"
)

// newTestServer wires a Server to a stub OAuth provider. The tokenHandler
// serves the provider's token endpoint.
func newTestServer(t *testing.T, tokenHandler http.HandlerFunc) (*Server, *tokenstore.MemoryStore) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler)
	mux.HandleFunc("POST /revoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	provider := httptest.NewServer(mux)
	t.Cleanup(provider.Close)

	store := tokenstore.NewMemoryStore()
	manager, err := oauth.NewManager(oauth.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURI:  "http://127.0.0.1:8484/oauth/callback",
		Endpoint: oauth.Endpoint{
			AuthURL:    provider.URL + "/authorize",
			TokenURL:   provider.URL + "/token",
			RevokeURL:  provider.URL + "/revoke",
			GraphQLURL: provider.URL + "/graphql",
		},
		Store: store,
	})
	require.NoError(t, err)

	server, err := New(manager, Options{Scopes: []string{"read", "write"}})
	require.NoError(t, err)
	return server, store
}

func okTokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"access_token":"A1","refresh_token":"R1","expires_in":3600,"token_type":"Bearer","scope":"read write"}`)
}

func TestAuthorizeRedirect(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	query := location.Query()
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "read write", query.Get("scope"))
	assert.Equal(t, "user", query.Get("actor"))
	assert.NotEmpty(t, query.Get("state"))
}

func TestAuthorizeCallbackFlow(t *testing.T) {
	server, store := newTestServer(t, okTokenHandler)

	// Pick up the state the authorize redirect issued.
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?state="+url.QueryEscape(state)+"&code=abc123", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Principal string `json:"principal"`
		TokenType string `json:"token_type"`
		Scope     string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user", resp.Principal)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "read write", resp.Scope)

	// The response reports the session without leaking token material.
	assert.NotContains(t, rec.Body.String(), "A1")
	assert.NotContains(t, rec.Body.String(), "R1")
	assert.NotContains(t, rec.Body.String(), "access_token")

	_, err = store.Get(context.Background(), "user")
	require.NoError(t, err)
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?state=forged&code=abc123", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired state")
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	callback := "/oauth/callback?state=" + url.QueryEscape(state) + "&code=abc123"

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callback, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the redirect fails.
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callback, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackReportsProviderError(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?error=access_denied&error_description=user+cancelled", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestCallbackMissingCode(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?state="+url.QueryEscape(state), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization code")
}

func TestCallbackExchangeRejection(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"code expired"}`)
	})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?state="+url.QueryEscape(state)+"&code=stale", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
}

func TestRevokeEndpoint(t *testing.T) {
	server, store := newTestServer(t, okTokenHandler)

	record, err := json.Marshal(map[string]any{
		"principal_id":  "user",
		"access_token":  "A1",
		"refresh_token": "R1",
		"token_type":    "Bearer",
		"expires_in":    3600,
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "user", record))

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/revoke", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Revoked bool `json:"revoked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Revoked)

	_, err = store.Get(context.Background(), "user")
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestRevokeWithoutSession(t *testing.T) {
	server, _ := newTestServer(t, okTokenHandler)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/revoke", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"revoked":false`)
}

func TestGraphQLForwardAttachesToken(t *testing.T) {
	var sawAuthorization string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuthorization = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{"viewer":{"id":"u1"}}}`)
	}))
	defer upstream.Close()

	store := tokenstore.NewMemoryStore()
	manager, err := oauth.NewManager(oauth.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURI:  "http://127.0.0.1:8484/oauth/callback",
		Store:        store,
	})
	require.NoError(t, err)

	record, err := json.Marshal(map[string]any{
		"principal_id":  "user",
		"access_token":  "A1",
		"refresh_token": "R1",
		"token_type":    "Bearer",
		"issued_at":     "2999-01-01T00:00:00Z",
		"expires_in":    3600,
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "user", record))

	server, err := New(manager, Options{
		Scopes:     []string{"read"},
		GraphQLURL: upstream.URL + "/graphql",
	})
	require.NoError(t, err)

	listening := httptest.NewServer(server)
	defer listening.Close()

	req, err := http.NewRequest(http.MethodPost, listening.URL+"/graphql", nil)
	require.NoError(t, err)
	// An inbound credential must not reach the upstream.
	req.Header.Set("Authorization", "Bearer attacker-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer A1", sawAuthorization)
}

func TestNewValidation(t *testing.T) {
	manager, err := oauth.NewManager(oauth.Config{Store: tokenstore.NewMemoryStore()})
	require.NoError(t, err)

	_, err = New(nil, Options{Scopes: []string{"read"}})
	require.Error(t, err)

	_, err = New(manager, Options{})
	require.Error(t, err)
}
