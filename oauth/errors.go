package oauth

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no token record exists for the
// requested principal. The caller must run the authorization flow.
var ErrNotAuthenticated = errors.New("oauth: not authenticated")

// ErrReauthorizationRequired is returned when the provider rejected the
// stored refresh token. The local record has been deleted and the user must
// re-consent.
var ErrReauthorizationRequired = errors.New("oauth: reauthorization required")

// ConfigurationError reports invalid caller-supplied input. It is fatal to
// the call and never retryable.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "oauth: configuration: " + e.Reason
}

// TokenExchangeError reports that the provider rejected an authorization
// code. Retrying with the same code will not succeed.
type TokenExchangeError struct {
	Code        string // provider "error" field, e.g. "invalid_grant"
	Description string // provider "error_description" field, may be empty
}

func (e *TokenExchangeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: token exchange rejected: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: token exchange rejected: %s", e.Code)
}

// TransportError reports a network-level failure on an OAuth endpoint call.
// Whether to retry is caller policy.
type TransportError struct {
	Op  string // "exchange" or "revoke"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oauth: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransientRefreshError reports a refresh failure that did not invalidate the
// stored record: the old token is retained and the next access retries.
type TransientRefreshError struct {
	Err error
}

func (e *TransientRefreshError) Error() string {
	return fmt.Sprintf("oauth: transient refresh failure: %v", e.Err)
}

func (e *TransientRefreshError) Unwrap() error { return e.Err }
