package oauth

import (
	"strings"
	"time"
)

// Actor selects the identity context an authorization is granted for.
// Linear issues tokens either on behalf of the authorizing user or on behalf
// of the application itself.
type Actor string

const (
	ActorUser        Actor = "user"
	ActorApplication Actor = "application"
)

// PrincipalApplication is the conventional principal id for tokens obtained
// with ActorApplication.
const PrincipalApplication = "application"

// TokenRecord is the stored credential set for one principal. Exactly one
// record exists per principal at any time; a refresh replaces it in place.
//
// ExpiresAt is never stored. It is derived from IssuedAt + ExpiresIn so the
// record has a single source of truth for expiry.
type TokenRecord struct {
	PrincipalID  string    `json:"principal_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresIn    int64     `json:"expires_in,omitempty"` // seconds
}

// ExpiresAt returns the derived expiry instant, or the zero time for records
// without a TTL (static tokens).
func (r *TokenRecord) ExpiresAt() time.Time {
	if r.ExpiresIn <= 0 {
		return time.Time{}
	}
	return r.IssuedAt.Add(time.Duration(r.ExpiresIn) * time.Second)
}

// Static reports whether the record holds a non-refreshable credential, such
// as a personal API key or a token injected through read-only storage. Static
// records are served as-is and never refreshed.
func (r *TokenRecord) Static() bool {
	return r.RefreshToken == "" || r.ExpiresIn <= 0
}

// Scopes returns the granted scopes, split from the provider's
// space-delimited form.
func (r *TokenRecord) Scopes() []string {
	return strings.Fields(r.Scope)
}
