package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/linear-go/internal/observability"
)

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "revoke the stored token and sign out",
		Action: logoutAction,
	}
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
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

	confirmed, err := manager.Revoke(ctx, cfg.OAuth.PrincipalID)
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	if confirmed {
		fmt.Println("Logged out, token revoked.")
	} else {
		// Local sign-out always wins; the provider just didn't confirm.
		fmt.Println("Logged out locally (provider did not confirm revocation).")
	}
	return nil
}
