package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/gearpulse/pkg/auth"
	"github.com/mchmarny/gearpulse/pkg/net"
	"github.com/mchmarny/gearpulse/pkg/youtube"
	"github.com/urfave/cli/v3"
)

func newRefreshCmd() *cli.Command {
	return &cli.Command{
		Name:            "refresh",
		HideHelpCommand: true,
		Usage:           "Refresh title, channel, publish date and views of video sources",
		Action:          cmdRefresh,
	}
}

func cmdRefresh(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	client, err := newYouTubeClient(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := youtube.RefreshSources(ctx, cfg.DB, client)
	if err != nil {
		return fmt.Errorf("refreshing sources: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

// newYouTubeClient builds an API client from the stored token. Expired
// access tokens are refreshed with the configured OAuth client.
func newYouTubeClient(ctx context.Context, cfg *appConfig) (*youtube.Client, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("app not initialized")
	}

	tok, err := auth.LoadToken(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	conf, err := auth.NewConfig(cfg.Config.YouTube.ClientID, cfg.Config.YouTube.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("creating oauth config: %w", err)
	}

	return youtube.NewClient(net.GetOAuthClient(ctx, conf.TokenSource(ctx, tok))), nil
}
