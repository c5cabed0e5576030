package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/florianilch/linear-go/tokenstore"
)

const (
	// DefaultRefreshThreshold is the time-before-expiry window that triggers a
	// proactive refresh. It exists to avoid races where a token expires
	// mid-flight of a dependent API call.
	DefaultRefreshThreshold = 5 * time.Minute

	// defaultHTTPTimeout bounds every outbound OAuth endpoint call.
	defaultHTTPTimeout = 30 * time.Second
)

// Config holds the construction parameters for a Manager.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Endpoint defaults to DefaultEndpoint (Linear) when zero.
	Endpoint Endpoint

	// Store persists one token record per principal.
	Store tokenstore.Store

	// RefreshThreshold defaults to DefaultRefreshThreshold when zero.
	RefreshThreshold time.Duration

	// HTTPClient defaults to a client with a 30s timeout when nil.
	HTTPClient *http.Client
}

// Manager owns the token lifecycle: exchange, proactive refresh, and revoke.
// It is the only writer of token records; readers obtain access tokens
// through ValidToken rather than the store, so they never observe an
// in-flight refresh.
type Manager struct {
	clientID     string
	clientSecret string
	redirectURI  string
	endpoint     Endpoint
	store        tokenstore.Store
	threshold    time.Duration
	httpClient   *http.Client

	// refreshGroup coalesces concurrent refreshes per principal so a rotated
	// refresh token is never used twice.
	refreshGroup singleflight.Group

	// now is replaced in tests.
	now func() time.Time
}

// NewManager creates a Manager. Store is required. Client credentials are
// validated when an operation needs them, so a manager serving only static
// tokens can be built without an OAuth application.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, &ConfigurationError{Reason: "token store is nil"}
	}

	endpoint := cfg.Endpoint
	if endpoint == (Endpoint{}) {
		endpoint = DefaultEndpoint
	}
	threshold := cfg.RefreshThreshold
	if threshold == 0 {
		threshold = DefaultRefreshThreshold
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Manager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		endpoint:     endpoint,
		store:        cfg.Store,
		threshold:    threshold,
		httpClient:   httpClient,
		now:          time.Now,
	}, nil
}

// tokenResponse is the provider's token endpoint response, including the
// error fields returned on rejection.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for tokens and persists the
// resulting record, replacing any previous record for the principal.
//
// A provider rejection surfaces as *TokenExchangeError; network-level
// failures surface as *TransportError.
func (m *Manager) ExchangeCode(ctx context.Context, principalID, code string) (*TokenRecord, error) {
	if principalID == "" {
		return nil, &ConfigurationError{Reason: "principal id is empty"}
	}
	if code == "" {
		return nil, &ConfigurationError{Reason: "authorization code is empty"}
	}
	if err := m.requireCredentials(); err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"redirect_uri":  {m.redirectURI},
		"code":          {code},
	}

	status, body, err := m.postForm(ctx, m.endpoint.TokenURL, form)
	if err != nil {
		return nil, &TransportError{Op: "exchange", Err: err}
	}

	var tr tokenResponse
	decodeErr := json.Unmarshal(body, &tr)
	if tr.Error != "" {
		return nil, &TokenExchangeError{Code: tr.Error, Description: tr.ErrorDescription}
	}
	if status < 200 || status > 299 {
		return nil, &TransportError{Op: "exchange", Err: fmt.Errorf("token endpoint returned status %d", status)}
	}
	if decodeErr != nil {
		return nil, &TransportError{Op: "exchange", Err: fmt.Errorf("decoding token response: %w", decodeErr)}
	}
	if tr.AccessToken == "" {
		return nil, &TransportError{Op: "exchange", Err: errors.New("token response missing access_token")}
	}

	record := m.newRecord(principalID, tr)
	if err := m.persist(ctx, record); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "exchanged authorization code",
		"principal", principalID,
		"scope", record.Scope,
		"expires_in", record.ExpiresIn)

	return record, nil
}

// ValidToken returns an access token that is good for at least the refresh
// threshold, refreshing synchronously first when necessary.
//
// Returns ErrNotAuthenticated when no record exists for the principal.
func (m *Manager) ValidToken(ctx context.Context, principalID string) (string, error) {
	record, err := m.load(ctx, principalID)
	if err != nil {
		return "", err
	}

	if !m.needsRefresh(record) {
		return record.AccessToken, nil
	}

	record, err = m.Refresh(ctx, principalID)
	if err != nil {
		return "", err
	}
	return record.AccessToken, nil
}

// Refresh mints a new access token from the stored refresh token and upserts
// the record. The provider may rotate the refresh token; when it does, the
// rotated value replaces the old one in the same write.
//
// Concurrent calls for one principal share a single in-flight refresh. The
// shared request runs on the first caller's context; a waiter whose own
// context ends first detaches with its context error.
func (m *Manager) Refresh(ctx context.Context, principalID string) (*TokenRecord, error) {
	ch := m.refreshGroup.DoChan(principalID, func() (any, error) {
		return m.refresh(ctx, principalID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenRecord), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context, principalID string) (*TokenRecord, error) {
	record, err := m.load(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if record.RefreshToken == "" {
		return nil, &ConfigurationError{Reason: "principal has a static token, nothing to refresh"}
	}
	if err := m.requireCredentials(); err != nil {
		return nil, err
	}

	// A coalesced caller may arrive after the previous flight already rotated
	// the record. Serve the fresh record without another round trip.
	if !m.needsRefresh(record) {
		return record, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"refresh_token": {record.RefreshToken},
	}

	status, body, err := m.postForm(ctx, m.endpoint.TokenURL, form)
	if err != nil {
		return nil, &TransientRefreshError{Err: err}
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		// The refresh token is dead. Keeping the record would retry a grant
		// the provider already rejected, so drop it and force re-consent.
		var tr tokenResponse
		_ = json.Unmarshal(body, &tr)
		slog.WarnContext(ctx, "refresh token rejected",
			"principal", principalID,
			"status", status,
			"provider_error", tr.Error)
		if derr := m.store.Delete(ctx, principalID); derr != nil {
			slog.ErrorContext(ctx, "failed to delete rejected token record",
				"principal", principalID, "error", derr)
		}
		return nil, ErrReauthorizationRequired
	case status < 200 || status > 299:
		return nil, &TransientRefreshError{Err: fmt.Errorf("token endpoint returned status %d", status)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &TransientRefreshError{Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &TransientRefreshError{Err: errors.New("token response missing access_token")}
	}

	// Providers are not required to rotate on every refresh.
	if tr.RefreshToken == "" {
		tr.RefreshToken = record.RefreshToken
	}

	fresh := m.newRecord(principalID, tr)
	if err := m.persist(ctx, fresh); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "refreshed access token",
		"principal", principalID,
		"expires_in", fresh.ExpiresIn)

	return fresh, nil
}

// Revoke invalidates the principal's access token with the provider and
// deletes the local record. Revocation is best-effort: the local record is
// gone even when the provider call fails, because local state is
// authoritative for "am I signed in". The returned bool reports whether the
// provider confirmed the revocation.
//
// Revoking an already signed-out principal is a no-op.
func (m *Manager) Revoke(ctx context.Context, principalID string) (bool, error) {
	record, err := m.load(ctx, principalID)
	if errors.Is(err, ErrNotAuthenticated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	confirmed := false
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint.RevokeURL, nil)
	if err != nil {
		return false, &TransportError{Op: "revoke", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+record.AccessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "revoke request failed, deleting local record anyway",
			"principal", principalID, "error", err)
	} else {
		confirmed = resp.StatusCode >= 200 && resp.StatusCode <= 299
		if !confirmed {
			slog.WarnContext(ctx, "provider did not confirm revocation",
				"principal", principalID, "status", resp.StatusCode)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	if err := m.store.Delete(ctx, principalID); err != nil {
		return confirmed, fmt.Errorf("deleting token record: %w", err)
	}

	slog.InfoContext(ctx, "revoked token", "principal", principalID, "confirmed", confirmed)
	return confirmed, nil
}

func (m *Manager) requireCredentials() error {
	if m.clientID == "" {
		return &ConfigurationError{Reason: "client id is empty"}
	}
	if m.clientSecret == "" {
		return &ConfigurationError{Reason: "client secret is empty"}
	}
	if m.redirectURI == "" {
		return &ConfigurationError{Reason: "redirect URI is empty"}
	}
	return nil
}

// needsRefresh reports whether the record is inside the refresh threshold.
// Static records never refresh.
func (m *Manager) needsRefresh(record *TokenRecord) bool {
	if record.Static() {
		return false
	}
	return !m.now().Before(record.ExpiresAt().Add(-m.threshold))
}

// load reads and decodes the principal's record. Stored values that are not
// JSON objects are treated as raw static tokens (e.g. a personal API key in
// an environment variable).
func (m *Manager) load(ctx context.Context, principalID string) (*TokenRecord, error) {
	if principalID == "" {
		return nil, &ConfigurationError{Reason: "principal id is empty"}
	}

	data, err := m.store.Get(ctx, principalID)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("reading token record: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNotAuthenticated
	}
	if trimmed[0] != '{' {
		return &TokenRecord{
			PrincipalID: principalID,
			AccessToken: string(trimmed),
			TokenType:   "Bearer",
		}, nil
	}

	var record TokenRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("decoding token record: %w", err)
	}
	if record.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return &record, nil
}

// persist writes the full record or nothing: the write is skipped entirely
// when the context is already done, so a cancelled operation never leaves a
// partial update behind.
func (m *Manager) persist(ctx context.Context, record *TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}
	if err := m.store.Put(ctx, record.PrincipalID, data); err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}
	return nil
}

func (m *Manager) newRecord(principalID string, tr tokenResponse) *TokenRecord {
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &TokenRecord{
		PrincipalID:  principalID,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tokenType,
		Scope:        tr.Scope,
		IssuedAt:     m.now().UTC(),
		ExpiresIn:    tr.ExpiresIn,
	}
}

func (m *Manager) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
