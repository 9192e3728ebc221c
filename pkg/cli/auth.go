package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/mchmarny/gearpulse/pkg/auth"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	clientIDFlagName     = "client-id"
	clientSecretFlagName = "client-secret"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Authenticate to Google to obtain a YouTube read-only access token",
		Action:          cmdInitAuthFlow,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    clientIDFlagName,
				Usage:   "Google OAuth client ID (default: youtube.client_id from config)",
				Sources: cli.EnvVars("GEARPULSE_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    clientSecretFlagName,
				Usage:   "Google OAuth client secret (default: youtube.client_secret from config)",
				Sources: cli.EnvVars("GEARPULSE_CLIENT_SECRET"),
			},
		},
	}
}

func cmdInitAuthFlow(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	if id := cmd.String(clientIDFlagName); id != "" {
		cfg.Config.YouTube.ClientID = id
	}
	if secret := cmd.String(clientSecretFlagName); secret != "" {
		cfg.Config.YouTube.ClientSecret = secret
	}

	conf, err := auth.NewConfig(cfg.Config.YouTube.ClientID, cfg.Config.YouTube.ClientSecret)
	if err != nil {
		return fmt.Errorf("creating oauth config: %w", err)
	}

	w := cmd.Root().Writer
	tok, err := auth.DeviceLogin(ctx, conf, func(da *oauth2.DeviceAuthResponse) {
		printDevicePrompt(w, da)
	})
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	if err := auth.SaveToken(cfg.Dir, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(w, "Token saved")
	return nil
}

func printDevicePrompt(w io.Writer, da *oauth2.DeviceAuthResponse) {
	fmt.Fprintf(w, "1). Copy this code: %s\n", da.UserCode)
	fmt.Fprintf(w, "2). Navigate to this URL in your browser to authenticate: %s\n", da.VerificationURI)
	fmt.Fprintln(w, "3). Waiting for the authorization to complete...")
}
