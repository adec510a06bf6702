package storefront

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// tokenRefreshSlack refreshes tokens slightly before they expire so an
// in-flight run never races the expiry.
const tokenRefreshSlack = 2 * time.Minute

// Credentials identify one storefront account.
type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// token is the cached session state returned by the auth endpoints.
// SessionKey is the base64-encoded secret that key derivation consumes.
type token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SessionKey   string    `json:"session_key"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// expired reports whether the token needs a refresh.
func (t *token) expired(now time.Time) bool {
	return !t.ExpiresAt.After(now.Add(tokenRefreshSlack))
}

// Session manages the authenticated storefront session: login, token
// refresh, a persistent device id, and an on-disk token cache so repeat
// invocations skip the login round trip.
type Session struct {
	http    *http.Client
	baseURL string
	creds   Credentials
	logger  *slog.Logger

	// dir holds the token cache and device id files.
	dir string

	deviceID string

	mu  sync.Mutex
	tok *token
}

// NewSession creates a Session caching its token under dir. The device
// id is generated once and reused across invocations, matching how the
// storefront tracks registered devices.
func NewSession(client *http.Client, baseURL string, creds Credentials, dir string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	deviceID, err := loadOrCreateDeviceID(filepath.Join(dir, "device_id"))
	if err != nil {
		return nil, err
	}

	return &Session{
		http:     client,
		baseURL:  baseURL,
		creds:    creds,
		logger:   logger,
		dir:      dir,
		deviceID: deviceID,
	}, nil
}

// loadOrCreateDeviceID reads the persisted device id, generating a fresh
// 16-byte hex id when the file is missing or malformed.
func loadOrCreateDeviceID(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		id := string(bytes.TrimSpace(data))
		if len(id) == 32 {
			return id, nil
		}
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	id := hex.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return id, nil
}

// tokenPath derives the per-account cache file name. The email is
// base64-encoded so it is filesystem-safe without leaking in plain text
// directory listings.
func (s *Session) tokenPath() string {
	name := base64.RawURLEncoding.EncodeToString([]byte(s.creds.Email))
	return filepath.Join(s.dir, "token_"+name+".json")
}

// SessionSecret returns the current session secret, logging in or
// refreshing as needed. The secret is handed straight to key derivation
// and never logged or cached beyond the token file.
func (s *Session) SessionSecret(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTokenLocked(ctx); err != nil {
		return nil, err
	}

	secret, err := base64.StdEncoding.DecodeString(s.tok.SessionKey)
	if err != nil {
		return nil, &AuthError{Op: "decode session key", Err: err}
	}
	return secret, nil
}

// AccessToken returns the bearer token for catalog requests.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTokenLocked(ctx); err != nil {
		return "", err
	}
	return s.tok.AccessToken, nil
}

// ensureTokenLocked makes s.tok valid: loads the cache, refreshes an
// expired token, or performs a fresh login. Callers hold s.mu.
func (s *Session) ensureTokenLocked(ctx context.Context) error {
	now := time.Now()

	if s.tok == nil {
		if tok, err := s.loadToken(); err == nil {
			s.logger.Debug("loaded cached session token")
			s.tok = tok
		}
	}
	if s.tok != nil && !s.tok.expired(now) {
		return nil
	}

	if s.tok != nil && s.tok.RefreshToken != "" {
		if err := s.refreshLocked(ctx); err == nil {
			return s.saveToken()
		}
		s.logger.Warn("token refresh failed, re-authenticating")
	}

	if err := s.loginLocked(ctx); err != nil {
		return err
	}
	return s.saveToken()
}

// loginLocked performs the credential login. Callers hold s.mu.
func (s *Session) loginLocked(ctx context.Context) error {
	if s.creds.Email == "" || s.creds.Password == "" {
		return ErrNotAuthenticated
	}

	s.logger.Info("logging in to storefront", "email", s.creds.Email)

	body := map[string]string{
		"email":     s.creds.Email,
		"password":  s.creds.Password,
		"device_id": s.deviceID,
	}
	tok, err := s.postAuth(ctx, "/auth/login", body)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	s.tok = tok
	return nil
}

// refreshLocked exchanges the refresh token for a fresh access token.
// Callers hold s.mu.
func (s *Session) refreshLocked(ctx context.Context) error {
	s.logger.Debug("refreshing session token")

	body := map[string]string{
		"source_token_type":    "refresh_token",
		"source_token":         s.tok.RefreshToken,
		"requested_token_type": "access_token",
		"device_id":            s.deviceID,
	}
	tok, err := s.postAuth(ctx, "/auth/token", body)
	if err != nil {
		return &AuthError{Op: "refresh", Err: err}
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = s.tok.RefreshToken
	}
	s.tok = tok
	return nil
}

// postAuth sends one JSON auth request and decodes the token response.
func (s *Session) postAuth(ctx context.Context, path string, body map[string]string) (*token, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var tok token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func (s *Session) loadToken() (*token, error) {
	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		return nil, err
	}
	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *Session) saveToken() error {
	data, err := json.MarshalIndent(s.tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.tokenPath(), data, 0o600); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	return nil
}
