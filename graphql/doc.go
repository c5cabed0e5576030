// Package graphql performs authenticated GraphQL calls against Linear and
// classifies their outcomes.
//
// The executor is deliberately schema-agnostic: the query string is
// caller-supplied and opaque, there is no batching, caching, or validation.
// Its one opinion is the error channel: GraphQL-level errors returned with
// HTTP 200 are data, carried inside Result, while transport-level failures
// (non-2xx status, undecodable body) are Go errors. Callers decide whether a
// populated error list constitutes failure for their use case.
package graphql
