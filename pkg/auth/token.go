package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

const (
	// YouTubeReadOnlyScope is the only scope requested from Google.
	YouTubeReadOnlyScope = "https://www.googleapis.com/auth/youtube.readonly"
)

// GoogleEndpoint is the Google OAuth endpoint including device authorization.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:       "https://accounts.google.com/o/oauth2/auth",
	TokenURL:      "https://oauth2.googleapis.com/token",
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
}

// NewConfig returns the OAuth config used for YouTube metadata reads.
func NewConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID == "" {
		return nil, errors.New("clientID is required")
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{YouTubeReadOnlyScope},
		Endpoint:     GoogleEndpoint,
	}, nil
}

// DeviceLogin runs the device authorization flow. prompt is called once with
// the user code and verification URL, then the token endpoint is polled until
// the user completes the flow or ctx is done.
func DeviceLogin(ctx context.Context, conf *oauth2.Config, prompt func(*oauth2.DeviceAuthResponse)) (*oauth2.Token, error) {
	if conf == nil {
		return nil, errors.New("oauth config is nil")
	}

	da, err := conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}

	if prompt != nil {
		prompt(da)
	}

	slog.Debug("waiting for device authorization", "interval", da.Interval, "expiry", da.Expiry)

	tok, err := conf.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	if tok.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}

	return tok, nil
}
