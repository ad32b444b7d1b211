package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AuthState is the saved result of claiming a setup token.
type AuthState struct {
	ClaimedAt  time.Time `json:"claimed_at"`
	AccessURL  string    `json:"access_url"`
	ClaimToken string    `json:"claim_token_hash"`
}

// LoadOrClaimAuth returns the access URL saved in stateFile, claiming token
// and saving the result when no usable state exists.
func LoadOrClaimAuth(ctx context.Context, hc *http.Client, token, stateFile string) (*AuthState, error) {
	auth, err := loadAuthState(stateFile)
	if err == nil && auth.AccessURL != "" {
		slog.Info("Using saved SimpleFIN access URL",
			"claimed_at", auth.ClaimedAt.Format("2006-01-02"),
			"state_file", stateFile)
		return auth, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Ignoring unreadable SimpleFIN state", "state_file", stateFile, "error", err)
	}

	if token == "" {
		return nil, fmt.Errorf("no saved SimpleFIN access and no setup token given")
	}

	slog.Info("No saved auth found, claiming new SimpleFIN token")
	accessURL, err := ClaimToken(ctx, hc, token)
	if err != nil {
		return nil, fmt.Errorf("failed to claim token: %w", err)
	}

	newAuth := &AuthState{
		AccessURL:  accessURL,
		ClaimedAt:  time.Now(),
		ClaimToken: hashToken(token),
	}
	if err := saveAuthState(stateFile, newAuth); err != nil {
		return nil, fmt.Errorf("failed to save auth state: %w", err)
	}

	slog.Info("Successfully claimed and saved SimpleFIN access URL", "state_file", stateFile)
	return newAuth, nil
}

// ClaimToken exchanges a base64 setup token for an access URL. A token can
// be claimed only once.
func ClaimToken(ctx context.Context, hc *http.Client, token string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("failed to decode SimpleFIN token: %w", err)
		}
	}

	claimURL := strings.TrimSpace(string(decoded))
	if err := validateURL(claimURL); err != nil {
		return "", fmt.Errorf("decoded token is not a valid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to claim SimpleFIN access: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	accessURL := strings.TrimSpace(string(body))
	if err := validateURL(accessURL); err != nil {
		return "", fmt.Errorf("invalid access URL received: %w", err)
	}
	return accessURL, nil
}

func loadAuthState(path string) (*AuthState, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}

	var auth AuthState
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func saveAuthState(path string, auth *AuthState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600) // Read/write for owner only
}

// hashToken keeps enough of the token to recognize it in the state file.
func hashToken(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-8:]
	}
	return "short_token"
}
