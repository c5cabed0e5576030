// Package oauth implements the OAuth 2.0 authorization-code token lifecycle
// for Linear's API.
//
// The lifecycle manager is the sole authority for obtaining, refreshing, and
// discarding tokens. Records are persisted through a tokenstore.Store keyed by
// principal, expiry is always derived from the issue time plus the provider's
// TTL, and access tokens are refreshed proactively before they expire.
//
// # Typical flow
//
//	url, _ := manager.AuthorizationURL(scopes, state, oauth.ActorUser)
//	// redirect the user, receive the code on the callback
//	record, err := manager.ExchangeCode(ctx, principalID, code)
//	// later, on every API call
//	access, err := manager.ValidToken(ctx, principalID)
//
// ValidToken refreshes synchronously when the token is within the refresh
// threshold of expiry. Concurrent calls for one principal coalesce to a single
// refresh request so a rotated refresh token is never raced.
//
// # Integration with oauth2.Transport
//
// Manager.TokenSource adapts a principal's lifecycle to oauth2.TokenSource:
//
//	client := &http.Client{Transport: &oauth2.Transport{Source: manager.TokenSource(ctx, principalID)}}
package oauth
