package net

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// GetOAuthClient returns an HTTP client that authorizes requests with the token
// source and refreshes it when it expires.
func GetOAuthClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	base, err := GetHTTPClient()
	if err == nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, ts)
}

// GetStaticOAuthClient wraps a fixed bearer token.
func GetStaticOAuthClient(ctx context.Context, token string) *http.Client {
	return GetOAuthClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	}))
}
