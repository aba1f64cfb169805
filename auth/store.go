package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// CredentialStore owns the OAuth token lifecycle: loading cached
// credentials from disk, checking expiry, refreshing through the token
// endpoint, and persisting the result. It is safe for concurrent use;
// concurrent refreshes collapse into a single network call.
type CredentialStore struct {
	path    string
	manager *OAuthManager

	mu    sync.RWMutex
	creds *Credentials

	refreshGroup singleflight.Group
	now          func() time.Time
}

// StoreOption customizes a CredentialStore.
type StoreOption func(*CredentialStore)

// WithCredentialPath overrides the default credential file location.
func WithCredentialPath(path string) StoreOption {
	return func(s *CredentialStore) {
		if path != "" {
			s.path = path
		}
	}
}

// WithOAuthManager supplies a configured OAuthManager, e.g. one with custom
// client credentials or a test endpoint.
func WithOAuthManager(m *OAuthManager) StoreOption {
	return func(s *CredentialStore) {
		if m != nil {
			s.manager = m
		}
	}
}

// NewCredentialStore creates a store reading from the default Gemini CLI
// credential path unless overridden.
func NewCredentialStore(opts ...StoreOption) *CredentialStore {
	s := &CredentialStore{
		path:    DefaultCredentialPath(),
		manager: NewOAuthManager(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultCredentialPath returns ~/.gemini/oauth_creds.json.
func DefaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(GeminiDir, GeminiCredentialFilename)
	}
	return filepath.Join(home, GeminiDir, GeminiCredentialFilename)
}

// Path returns the credential file location this store reads and writes.
func (s *CredentialStore) Path() string {
	return s.path
}

// EnsureAuthenticated returns a valid access token, loading cached
// credentials on first use and refreshing when the token is expired,
// inside the refresh buffer, or forceRefresh is set. The returned token is
// valid at the moment of return; callers racing expiry rely on the
// transport's retry path.
func (s *CredentialStore) EnsureAuthenticated(ctx context.Context, forceRefresh bool) (string, error) {
	s.mu.RLock()
	creds := s.creds
	s.mu.RUnlock()

	if creds == nil {
		loaded, err := s.load()
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		// Another goroutine may have loaded (or refreshed) meanwhile.
		if s.creds == nil {
			s.creds = loaded
		}
		creds = s.creds
		s.mu.Unlock()
	}

	if !forceRefresh && creds.Valid(s.now()) {
		return creds.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, forceRefresh)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Credentials returns a copy of the current credential set, refreshing
// first if needed.
func (s *CredentialStore) Credentials(ctx context.Context) (Credentials, error) {
	if _, err := s.EnsureAuthenticated(ctx, false); err != nil {
		return Credentials{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.creds, nil
}

// Invalidate clears the in-memory credential cache, forcing the next
// EnsureAuthenticated call to reload from disk and refresh if needed. The
// transport calls this after a 401/403 before its single retry. The disk
// file is left untouched.
func (s *CredentialStore) Invalidate() {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	logging.Debug("invalidated cached gemini credentials")
}

// Store persists a credential set and makes it the in-memory current set.
// Used after an interactive code exchange.
func (s *CredentialStore) Store(creds *Credentials) error {
	if err := s.save(creds); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// refresh performs a single-flight token refresh. Callers that arrive while
// one is in flight share its result; a caller that arrives after another
// completed reuses the fresh token without a second network call.
func (s *CredentialStore) refresh(ctx context.Context, force bool) (*Credentials, error) {
	v, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		s.mu.RLock()
		current := s.creds
		s.mu.RUnlock()

		// Re-check: a refresh that finished while we waited satisfies us,
		// unless the caller explicitly forced a new token.
		if !force && current != nil && current.Valid(s.now()) {
			return current, nil
		}

		if current == nil {
			loaded, err := s.load()
			if err != nil {
				return nil, err
			}
			current = loaded
		}

		logging.Debug("refreshing gemini OAuth token", "expiresAt", current.ExpiresAt().Format(time.RFC3339))

		refreshed, err := s.manager.RefreshToken(ctx, current.RefreshToken)
		if err != nil {
			return nil, err
		}

		// Persist before committing: an in-memory-only token would silently
		// diverge from what the next process sees.
		if err := s.save(refreshed); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed credentials: %w", err)
		}

		s.mu.Lock()
		s.creds = refreshed
		s.mu.Unlock()

		logging.Debug("gemini OAuth token refreshed", "expiresAt", refreshed.ExpiresAt().Format(time.RFC3339))
		return refreshed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credentials), nil
}

func (s *CredentialStore) load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &CredentialsNotFoundError{Path: s.path}
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", s.path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", s.path, err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, fmt.Errorf("invalid credentials file %s: missing token fields", s.path)
	}
	if creds.TokenType == "" {
		creds.TokenType = "Bearer"
	}
	return &creds, nil
}

func (s *CredentialStore) save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file %s: %w", s.path, err)
	}
	return nil
}
