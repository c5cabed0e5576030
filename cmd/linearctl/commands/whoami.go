package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/linear-go/graphql"
	"github.com/florianilch/linear-go/internal/observability"
	"github.com/florianilch/linear-go/oauth"
)

const viewerQuery = `query { viewer { id name email } }`

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "show the authenticated Linear user",
		Action: whoamiAction,
	}
}

func whoamiAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	manager, err := cfg.NewManager()
	if err != nil {
		return fmt.Errorf("failed to create token lifecycle manager: %w", err)
	}

	executor, err := graphql.NewExecutor(cfg.Linear.GraphQLURL, manager)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	result, err := executor.Execute(ctx, cfg.OAuth.PrincipalID, viewerQuery, nil)
	if errors.Is(err, oauth.ErrNotAuthenticated) {
		return errors.New("not logged in, run `linearctl login` first")
	}
	if errors.Is(err, oauth.ErrReauthorizationRequired) {
		return errors.New("session expired, run `linearctl login` again")
	}
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}

	var payload struct {
		Viewer struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"viewer"`
	}
	if err := result.DecodeData(&payload); err != nil {
		return err
	}

	fmt.Printf("%s <%s> (%s)\n", payload.Viewer.Name, payload.Viewer.Email, payload.Viewer.ID)
	return nil
}
