// Package server implements the server-side companion: the authorization
// redirect, the OAuth callback, sign-out, and an authenticated GraphQL
// forward endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/florianilch/linear-go/internal/observability/middleware"
	"github.com/florianilch/linear-go/oauth"
)

// stateTTL bounds how long an issued authorization state stays redeemable.
const stateTTL = 10 * time.Minute

// Options configures a Server.
type Options struct {
	// Scopes requested during authorization.
	Scopes []string

	// Actor is the identity context for authorization (user or application).
	Actor oauth.Actor

	// PrincipalID keys the token record this server manages.
	PrincipalID string

	// GraphQLURL is the upstream GraphQL endpoint forwarded to. Defaults to
	// the Linear endpoint.
	GraphQLURL string
}

// Server is the companion HTTP server.
type Server struct {
	manager     *oauth.Manager
	states      *stateStore
	scopes      []string
	actor       oauth.Actor
	principalID string

	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server around the given lifecycle manager.
func New(manager *oauth.Manager, opts Options) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager cannot be nil")
	}
	if len(opts.Scopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}

	actor := opts.Actor
	if actor == "" {
		actor = oauth.ActorUser
	}
	principalID := opts.PrincipalID
	if principalID == "" {
		principalID = string(actor)
	}
	graphqlURL := opts.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = oauth.DefaultEndpoint.GraphQLURL
	}

	upstream, err := url.Parse(graphqlURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GraphQL URL: %w", err)
	}

	s := &Server{
		manager:     manager,
		states:      newStateStore(stateTTL),
		scopes:      opts.Scopes,
		actor:       actor,
		principalID: principalID,
		mux:         http.NewServeMux(),
	}

	logger := slog.Default()
	wrap := func(h http.Handler) http.Handler {
		return applyMiddlewares(h,
			middleware.Logging(logger),
			middleware.TraceContext,
			Recovery,
		)
	}

	s.mux.Handle("GET /oauth/authorize", wrap(http.HandlerFunc(s.handleAuthorize)))
	s.mux.Handle("GET /oauth/callback", wrap(http.HandlerFunc(s.handleCallback)))
	s.mux.Handle("POST /oauth/revoke", wrap(http.HandlerFunc(s.handleRevoke)))

	// Forward authenticated GraphQL calls upstream. The bearer token is
	// attached by oauth2.Transport, which asks the manager on every round
	// trip and so always sees a post-refresh token.
	graphqlProxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = upstream.Scheme
			pr.Out.URL.Host = upstream.Host
			pr.Out.URL.Path = upstream.Path
			pr.Out.Host = upstream.Host
			// Inbound credentials never travel upstream.
			pr.Out.Header.Del("Authorization")
		},
		Transport: &oauth2.Transport{
			Source: manager.TokenSource(context.Background(), principalID),
		},
	}
	s.mux.Handle("POST /graphql", wrap(graphqlProxy))

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error
// channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
