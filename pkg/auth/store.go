package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	keyringService = "gearpulse"
	keyringUser    = "youtube_token"
	tokenFileName  = "youtube_token.json"
	tokenFileMode  = 0600
)

// SaveToken stores the token in the OS keychain. When the keychain is
// unavailable the token is written to a file in dir.
func SaveToken(dir string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is nil")
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := keyring.Set(keyringService, keyringUser, string(b)); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(dir, b)
	}

	// the keychain copy wins, drop any stale file
	removeTokenFile(dir)

	return nil
}

// LoadToken reads the token from the OS keychain or, failing that, the file in dir.
// A token found only in the file is migrated to the keychain.
func LoadToken(dir string) (*oauth2.Token, error) {
	if s, err := keyring.Get(keyringService, keyringUser); err == nil && s != "" {
		return decodeToken([]byte(s))
	}

	b, err := os.ReadFile(tokenPath(dir))
	if err != nil {
		return nil, fmt.Errorf("token not found, run auth first: %w", err)
	}

	tok, err := decodeToken(b)
	if err != nil {
		return nil, err
	}

	if err := keyring.Set(keyringService, keyringUser, string(b)); err == nil {
		slog.Info("migrated token from file to OS keychain")
		removeTokenFile(dir)
	}

	return tok, nil
}

// DeleteToken removes the token from both the keychain and the file.
func DeleteToken(dir string) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("failed to delete keychain token", "error", err)
	}

	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}

	return nil
}

func saveTokenFile(dir string, b []byte) error {
	if dir == "" {
		return errors.New("token directory not specified")
	}
	if err := os.WriteFile(tokenPath(dir), b, tokenFileMode); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func decodeToken(b []byte) (*oauth2.Token, error) {
	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("stored token is empty")
	}
	return tok, nil
}

func removeTokenFile(dir string) {
	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to delete token file", "error", err)
	}
}

func tokenPath(dir string) string {
	return filepath.Join(dir, tokenFileName)
}
