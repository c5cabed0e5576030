package oauth

// Endpoint defines the provider URLs used by the token lifecycle manager.
type Endpoint struct {
	// AuthURL is the authorization (consent) endpoint users are redirected to.
	AuthURL string

	// TokenURL is the token endpoint for code exchange and refresh.
	TokenURL string

	// RevokeURL is the token revocation endpoint.
	RevokeURL string

	// GraphQLURL is the authenticated GraphQL endpoint.
	GraphQLURL string
}

// DefaultEndpoint defines the OAuth and API endpoints for Linear.
var DefaultEndpoint = Endpoint{
	AuthURL:    "https://linear.app/oauth/authorize",
	TokenURL:   "https://api.linear.app/oauth/token",
	RevokeURL:  "https://api.linear.app/oauth/revoke",
	GraphQLURL: "https://api.linear.app/graphql",
}
