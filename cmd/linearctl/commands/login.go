package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/linear-go/internal/observability"
	"github.com/florianilch/linear-go/oauth"
)

// loginTimeout bounds how long the command waits for the browser redirect.
const loginTimeout = 5 * time.Minute

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authorize with Linear and store the token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "oauth--client-id",
				Usage: "Linear OAuth application client id",
			},
			&cli.StringFlag{
				Name:  "oauth--client-secret",
				Usage: "Linear OAuth application client secret (prompted when omitted)",
			},
			&cli.StringSliceFlag{
				Name:  "oauth--scopes",
				Usage: "scopes to request",
			},
			&cli.StringFlag{
				Name:  "oauth--actor",
				Usage: "authorize as \"user\" or \"application\"",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	if cfg.OAuth.ClientSecret == "" {
		secret, err := promptSecret("Client secret: ")
		if err != nil {
			return err
		}
		cfg.OAuth.ClientSecret = secret
	}

	if err := cfg.ValidateOAuthFlow(); err != nil {
		return err
	}

	manager, err := cfg.NewManager()
	if err != nil {
		return fmt.Errorf("failed to create token lifecycle manager: %w", err)
	}

	redirect, err := url.Parse(cfg.OAuth.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect URI: %w", err)
	}

	state := uuid.NewString()
	authURL, err := manager.AuthorizationURL(cfg.OAuth.Scopes, state, oauth.Actor(cfg.OAuth.Actor))
	if err != nil {
		return err
	}

	code, err := waitForCallback(ctx, redirect, state, authURL)
	if err != nil {
		return err
	}

	record, err := manager.ExchangeCode(ctx, cfg.OAuth.PrincipalID, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	fmt.Printf("Logged in as %q (scopes: %s)\n", record.PrincipalID, strings.Join(record.Scopes(), " "))
	return nil
}

// waitForCallback serves the redirect URI on a loopback listener, prints the
// authorization URL for the user, and returns the authorization code from
// the redirect.
func waitForCallback(ctx context.Context, redirect *url.URL, state, authURL string) (string, error) {
	type callbackResult struct {
		code string
		err  error
	}
	results := make(chan callbackResult, 1)

	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default: // a result was already delivered; later hits are noise
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errCode := query.Get("error"); errCode != "" {
			msg := errCode
			if desc := query.Get("error_description"); desc != "" {
				msg += ": " + desc
			}
			http.Error(w, "Authorization failed. You can close this tab.", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New(msg)})
			return
		}
		if query.Get("state") != state {
			http.Error(w, "State mismatch. You can close this tab.", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization state mismatch")})
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("callback carried no authorization code")})
			return
		}

		fmt.Fprintln(w, "Authorized. You can close this tab and return to the terminal.")
		deliver(callbackResult{code: code})
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	server := &http.Server{Handler: mux, ReadTimeout: 30 * time.Second}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL in your browser to authorize:\n\n  %s\n\n", authURL)

	select {
	case res := <-results:
		return res.code, res.err
	case <-time.After(loginTimeout):
		return "", errors.New("timed out waiting for authorization")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// promptSecret reads a secret from the terminal without echo. Fails when
// stdin is not a terminal, so scripted use must pass the secret explicitly.
func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("client secret not configured and stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	if len(secret) == 0 {
		return "", errors.New("empty client secret")
	}
	return string(secret), nil
}
